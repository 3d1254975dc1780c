package bootstrap

import (
	"github.com/google/wire"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	"github.com/yanqian/astro-daily/internal/infra/astroapi"
	"github.com/yanqian/astro-daily/internal/infra/webhook"
)

// CoreSet provides the domain services shared by the HTTP server and the terminal client.
var CoreSet = wire.NewSet(
	ProvideStore,
	ProvideReadingConfig,
	ProvideChatConfig,
	ProvideReadingClient,
	ProvideWebhookClient,
	ProvideProfileRepository,
	reading.NewService,
	chat.NewService,
	wire.Bind(new(reading.Fetcher), new(*astroapi.Client)),
	wire.Bind(new(chat.Transport), new(*webhook.Client)),
)

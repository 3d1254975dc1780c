package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/kv"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	"github.com/yanqian/astro-daily/internal/infra/astroapi"
	"github.com/yanqian/astro-daily/internal/infra/config"
	"github.com/yanqian/astro-daily/internal/infra/kvstore"
	"github.com/yanqian/astro-daily/internal/infra/webhook"
)

// ProvideReadingConfig maps the reading section. Validate has already resolved the timezone.
func ProvideReadingConfig(cfg *config.Config) (reading.Config, error) {
	loc, err := cfg.Reading.Location()
	if err != nil {
		return reading.Config{}, err
	}
	return reading.Config{
		Location:        loc,
		LocalFallback:   cfg.Reading.LocalFallback,
		RefreshInterval: cfg.Reading.RefreshInterval,
	}, nil
}

// ProvideChatConfig maps the chat section.
func ProvideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		WebhookURL:      cfg.Chat.WebhookURL,
		RelayTemplate:   cfg.Chat.RelayTemplate,
		MaxRetries:      cfg.Chat.MaxRetries,
		RetryDelay:      cfg.Chat.RetryDelay,
		LocalReplyDelay: cfg.Chat.LocalReplyDelay,
		Development:     cfg.Chat.Development,
	}
}

// ProvideReadingClient builds the reading endpoint client.
func ProvideReadingClient(cfg *config.Config) *astroapi.Client {
	return astroapi.NewClient(cfg.Reading.BaseURL, cfg.Reading.Timeout)
}

// ProvideWebhookClient builds the chat webhook transport.
func ProvideWebhookClient(cfg *config.Config) *webhook.Client {
	return webhook.NewClient(cfg.Chat.Timeout, cfg.Chat.Origin)
}

// ProvideProfileRepository stores the birth profile in the shared key-value store.
func ProvideProfileRepository(store kv.Store, logger *slog.Logger) profile.Repository {
	return profile.NewRepository(store, logger)
}

// ProvideWatcher builds the day-rollover watcher and logs each refresh.
func ProvideWatcher(cfg reading.Config, svc reading.Service, profiles profile.Repository, logger *slog.Logger) *reading.Watcher {
	w := reading.NewWatcher(cfg, svc, profiles, logger)
	w.OnRefresh(func(res reading.Result, err error) {
		if err != nil {
			return
		}
		logger.Info("reading refreshed in background", "source", res.Source, "date", res.Reading.Date)
	})
	return w
}

// ProvideStore opens the configured key-value backend. Backends that cannot be reached fall
// back to the in-memory store so the app still starts; the returned cleanup releases connections.
func ProvideStore(cfg *config.Config, logger *slog.Logger) (kv.Store, func(), error) {
	noop := func() {}
	fallback := func() (kv.Store, func(), error) {
		logger.Warn("using in-memory key-value store; data will not survive a restart")
		return kvstore.NewMemoryStore(), noop, nil
	}

	switch cfg.Store.Driver {
	case config.DriverSQLite:
		store, err := kvstore.OpenSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite store, falling back to memory store", "path", cfg.Store.SQLitePath, "error", err)
			return fallback()
		}
		logger.Info("sqlite key-value store enabled", "path", cfg.Store.SQLitePath)
		return store, func() { _ = store.Close() }, nil

	case config.DriverValkey:
		opt, err := buildValkeyOptions(cfg.Store.Valkey.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
			return fallback()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory store", "error", err)
			return fallback()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory store", "error", err)
			client.Close()
			return fallback()
		}
		logger.Info("valkey key-value store enabled", "addr", cfg.Store.Valkey.Addr)
		return kvstore.NewValkeyStore(client, cfg.Store.Valkey.Prefix), client.Close, nil

	case config.DriverPostgres:
		pool, err := openPostgres(cfg.Store.Postgres, logger)
		if err != nil {
			return fallback()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := kvstore.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.Error("failed to prepare postgres store, falling back to memory store", "error", err)
			pool.Close()
			return fallback()
		}
		logger.Info("postgres key-value store enabled")
		return store, pool.Close, nil

	default:
		return kvstore.NewMemoryStore(), noop, nil
	}
}

func openPostgres(cfg config.PostgresConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.DSN))
	if err != nil {
		logger.Error("invalid postgres dsn, falling back to memory store", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, falling back to memory store", "error", err)
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, falling back to memory store", "error", err)
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

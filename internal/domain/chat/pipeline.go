package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Pipeline delivers messages for one conversation and owns its escalation mode.
type Pipeline struct {
	cfg       Config
	transport Transport
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	mode Mode
}

// NewPipeline starts in ModeDirect.
func NewPipeline(cfg Config, transport Transport, logger *slog.Logger) *Pipeline {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Pipeline{
		cfg:       cfg,
		transport: transport,
		logger:    logger.With("component", "chat.pipeline"),
		now:       time.Now,
		sleep:     sleepContext,
		mode:      ModeDirect,
	}
}

// Mode reports the current delivery mode.
func (p *Pipeline) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Reset returns the pipeline to direct delivery.
func (p *Pipeline) Reset() Message {
	p.mu.Lock()
	p.mode = ModeDirect
	p.mu.Unlock()
	return Message{Text: ResetText, Timestamp: p.now()}
}

// Send delivers text and always yields a reply message; failures become error replies.
func (p *Pipeline) Send(ctx context.Context, text string) Message {
	mode := p.Mode()
	if mode == ModeLocalOnly {
		_ = p.sleep(ctx, p.cfg.LocalReplyDelay)
		return Message{Text: LocalReply(text) + LocalSuffix, Timestamp: p.now()}
	}

	target := p.cfg.WebhookURL
	if mode == ModeRelay {
		target = p.cfg.RelayURL()
	}

	reply, attempts, err := p.deliver(ctx, target, text)
	if err == nil {
		output := strings.TrimSpace(reply.Output)
		if output == "" {
			output = EmptyOutputText
		}
		return Message{Text: output, Timestamp: p.now()}
	}

	outcome := classify(ctx, err)
	next := Transition(mode, outcome)
	if next != mode {
		p.advance(mode, next)
	}
	p.logger.Warn("chat delivery failed",
		"mode", mode,
		"next_mode", next,
		"attempts", attempts,
		"error", err,
	)

	msg := Message{
		Text:      ErrorText(err) + escalationNote(mode, next),
		Timestamp: p.now(),
		IsError:   true,
	}
	if p.cfg.Development {
		msg.Debug = debugDetail(mode, target, attempts, err)
	}
	return msg
}

// advance moves from -> to unless the mode changed meanwhile, e.g. by Reset.
func (p *Pipeline) advance(from, to Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == from {
		p.mode = to
	}
}

// deliver makes one attempt plus up to MaxRetries retries, retrying only network failures.
func (p *Pipeline) deliver(ctx context.Context, target, text string) (Reply, int, error) {
	attempts := 0
	for {
		attempts++
		reply, err := p.transport.Post(ctx, target, Request{Message: text})
		if err == nil {
			return reply, attempts, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, attempts, ctxErr
		}
		var netErr *NetworkError
		if !errors.As(err, &netErr) || attempts > p.cfg.MaxRetries {
			return Reply{}, attempts, err
		}
		p.logger.Debug("retrying chat request",
			"url", target,
			"attempt", attempts,
			"retries_left", p.cfg.MaxRetries-attempts+1,
		)
		if sErr := p.sleep(ctx, p.cfg.RetryDelay); sErr != nil {
			return Reply{}, attempts, sErr
		}
	}
}

func classify(ctx context.Context, err error) Outcome {
	// A caller that gave up is not evidence about the network.
	if ctx.Err() != nil {
		return OutcomeOtherFailure
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return OutcomeNetworkFailure
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return OutcomeServerFailure
	}
	return OutcomeOtherFailure
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package reading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/kv"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	apperrors "github.com/yanqian/astro-daily/pkg/errors"
	"github.com/yanqian/astro-daily/pkg/util"
)

// Service exposes the daily reading cache.
type Service interface {
	GetDailyReading(ctx context.Context, p profile.UserProfile) (Result, error)
	Refresh(ctx context.Context, p profile.UserProfile) (Result, error)
	ClearCachedReading(ctx context.Context) error
	LastUpdate(ctx context.Context) (string, bool, error)
}

// Fetcher retrieves a reading from the remote endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, p profile.UserProfile) (Response, error)
}

// Generator synthesizes a reading without the network.
type Generator interface {
	Generate(p profile.UserProfile, now time.Time) Response
}

type service struct {
	cfg       Config
	store     kv.Store
	fetcher   Fetcher
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires up the reading cache.
func NewService(cfg Config, store kv.Store, fetcher Fetcher, logger *slog.Logger) Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &service{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		generator: NewLocalGenerator(cfg.Location),
		logger:    logger.With("component", "reading.service"),
		now:       util.SystemClock,
	}
}

// ShouldRefresh is true when ts cannot be parsed or falls on a different local calendar day than now.
func ShouldRefresh(ts string, now time.Time, loc *time.Location) bool {
	last, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return true
	}
	return !util.SameLocalDay(last, now, loc)
}

func (s *service) GetDailyReading(ctx context.Context, p profile.UserProfile) (Result, error) {
	now := s.now()

	lastUpdate, ok, err := s.LastUpdate(ctx)
	if err != nil {
		s.logger.Warn("read last update failed, refreshing", "error", err)
	}
	needsRefresh := !ok || ShouldRefresh(lastUpdate, now, s.cfg.Location)
	s.logger.Debug("reading cache check", "needs_refresh", needsRefresh, "last_update", lastUpdate)

	if !needsRefresh {
		if cached, stamp, found := s.loadRecord(ctx); found {
			s.logger.Debug("using cached reading")
			return Result{Reading: cached, Source: SourceCache, LastUpdate: stamp}, nil
		}
		s.logger.Warn("cache timestamp present without reading, fetching")
	}

	return s.fetchAndStore(ctx, p, now)
}

func (s *service) Refresh(ctx context.Context, p profile.UserProfile) (Result, error) {
	if err := s.ClearCachedReading(ctx); err != nil {
		s.logger.Warn("clear before refresh failed", "error", err)
	}
	return s.GetDailyReading(ctx, p)
}

func (s *service) ClearCachedReading(ctx context.Context) error {
	err := errors.Join(
		s.store.Remove(ctx, kv.KeyDailyReading),
		s.store.Remove(ctx, kv.KeyLastUpdate),
	)
	if err != nil {
		s.logger.Error("clear cached reading failed", "error", err)
		return apperrors.Wrap(apperrors.CodeStore, "could not clear cached reading", err)
	}
	s.logger.Info("cleared cached reading")
	return nil
}

func (s *service) LastUpdate(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx, kv.KeyLastUpdate)
}

func (s *service) fetchAndStore(ctx context.Context, p profile.UserProfile, now time.Time) (Result, error) {
	resp, err := s.fetcher.Fetch(ctx, p)
	if err != nil {
		s.logger.Warn("reading fetch failed", "error", err)
		return s.fallback(ctx, p, now, err)
	}

	stamp := now.UTC().Format(isoLayout)
	if err := s.persist(ctx, resp, stamp); err != nil {
		s.logger.Error("persist reading failed", "error", err)
		return Result{Reading: resp, Source: SourceNetwork, Advisory: AdvisoryNotSaved}, nil
	}
	s.logger.Info("reading refreshed", "zodiac", resp.Zodiac, "last_update", stamp)
	return Result{Reading: resp, Source: SourceNetwork, LastUpdate: stamp}, nil
}

func (s *service) fallback(ctx context.Context, p profile.UserProfile, now time.Time, fetchErr error) (Result, error) {
	if cached, stamp, ok := s.loadRecord(ctx); ok {
		s.logger.Info("using stale cached reading after fetch error", "last_update", stamp)
		return Result{Reading: cached, Source: SourceStale, Advisory: AdvisoryStale, LastUpdate: stamp}, nil
	}
	if s.cfg.LocalFallback {
		s.logger.Info("no cached reading, generating locally")
		return Result{Reading: s.generator.Generate(p, now), Source: SourceLocal, Advisory: AdvisoryLocal}, nil
	}
	return Result{}, apperrors.Wrap(apperrors.CodeFetch, MessageNoConnection, fetchErr)
}

// persist writes both keys; if the timestamp cannot be written the reading is removed again.
func (s *service) persist(ctx context.Context, resp Response, stamp string) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	if err := s.store.Set(ctx, kv.KeyDailyReading, string(payload)); err != nil {
		return err
	}
	if err := s.store.Set(ctx, kv.KeyLastUpdate, stamp); err != nil {
		return errors.Join(err, s.store.Remove(ctx, kv.KeyDailyReading))
	}
	return nil
}

// loadRecord returns the cached reading only when both keys are present and the reading decodes.
func (s *service) loadRecord(ctx context.Context) (Response, string, bool) {
	stamp, ok, err := s.store.Get(ctx, kv.KeyLastUpdate)
	if err != nil || !ok {
		return Response{}, "", false
	}
	raw, ok, err := s.store.Get(ctx, kv.KeyDailyReading)
	if err != nil {
		s.logger.Error("read cached reading failed", "error", err)
		return Response{}, "", false
	}
	if !ok {
		return Response{}, "", false
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		s.logger.Warn("cached reading unreadable", "error", err)
		return Response{}, "", false
	}
	return resp, stamp, true
}

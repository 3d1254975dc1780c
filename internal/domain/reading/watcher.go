package reading

import (
	"context"
	"log/slog"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/pkg/util"
)

// DefaultRefreshInterval is how often the watcher looks for a day rollover.
const DefaultRefreshInterval = time.Minute

// ProfileSource provides the profile used for background refreshes.
type ProfileSource interface {
	Load(ctx context.Context) (profile.UserProfile, bool, error)
}

// Watcher re-evaluates freshness on a fixed interval and refreshes the reading once the local day rolls over.
type Watcher struct {
	svc       Service
	profiles  ProfileSource
	interval  time.Duration
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
	onRefresh func(Result, error)
}

// NewWatcher builds a watcher using cfg.RefreshInterval and cfg.Location.
func NewWatcher(cfg Config, svc Service, profiles ProfileSource, logger *slog.Logger) *Watcher {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Watcher{
		svc:      svc,
		profiles: profiles,
		interval: interval,
		loc:      loc,
		logger:   logger.With("component", "reading.watcher"),
		now:      util.SystemClock,
	}
}

// OnRefresh registers a callback invoked after every rollover refresh.
func (w *Watcher) OnRefresh(fn func(Result, error)) {
	w.onRefresh = fn
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check refreshes when a stored reading belongs to a previous local day. It reports whether a refresh ran.
func (w *Watcher) Check(ctx context.Context) bool {
	lastUpdate, ok, err := w.svc.LastUpdate(ctx)
	if err != nil {
		w.logger.Warn("read last update failed", "error", err)
		return false
	}
	if !ok || !ShouldRefresh(lastUpdate, w.now(), w.loc) {
		return false
	}

	p, found, err := w.profiles.Load(ctx)
	if err != nil {
		w.logger.Warn("load profile for refresh failed", "error", err)
		return false
	}
	if !found {
		w.logger.Debug("day rolled over but no profile stored")
		return false
	}

	w.logger.Info("day rollover detected, refreshing reading", "last_update", lastUpdate)
	res, err := w.svc.GetDailyReading(ctx, p)
	if err != nil {
		w.logger.Warn("rollover refresh failed", "error", err)
	}
	if w.onRefresh != nil {
		w.onRefresh(res, err)
	}
	return true
}

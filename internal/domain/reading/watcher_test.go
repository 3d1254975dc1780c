package reading

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yanqian/astro-daily/internal/domain/profile"
)

func TestWatcherCheck(t *testing.T) {
	now := time.Date(2024, 7, 2, 0, 1, 0, 0, testLoc)
	yesterday := time.Date(2024, 7, 1, 23, 59, 0, 0, testLoc).Format(time.RFC3339)
	today := time.Date(2024, 7, 2, 0, 0, 30, 0, testLoc).Format(time.RFC3339)

	tests := []struct {
		name        string
		lastUpdate  string
		hasUpdate   bool
		hasProfile  bool
		wantRefresh bool
	}{
		{"rollover refreshes", yesterday, true, true, true},
		{"same day is quiet", today, true, true, false},
		{"no stored reading is quiet", "", false, true, false},
		{"rollover without profile is skipped", yesterday, true, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{lastUpdate: tc.lastUpdate, hasUpdate: tc.hasUpdate}
			profiles := &stubProfiles{found: tc.hasProfile, profile: sampleProfile()}
			w := newTestWatcher(svc, profiles, now)

			var called int
			w.OnRefresh(func(res Result, err error) {
				called++
				require.NoError(t, err)
				require.Equal(t, SourceNetwork, res.Source)
			})

			require.Equal(t, tc.wantRefresh, w.Check(context.Background()))
			if tc.wantRefresh {
				require.Equal(t, 1, svc.getCalls())
				require.Equal(t, 1, called)
				require.Equal(t, sampleProfile(), svc.lastProfile)
			} else {
				require.Equal(t, 0, svc.getCalls())
				require.Zero(t, called)
			}
		})
	}
}

func TestWatcherReportsRefreshErrors(t *testing.T) {
	svc := &stubService{lastUpdate: "garbage", hasUpdate: true, err: errors.New("offline")}
	w := newTestWatcher(svc, &stubProfiles{found: true, profile: sampleProfile()}, time.Now())

	var got error
	w.OnRefresh(func(_ Result, err error) { got = err })
	require.True(t, w.Check(context.Background()))
	require.EqualError(t, got, "offline")
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := &stubService{lastUpdate: "2000-01-01T00:00:00Z", hasUpdate: true}
	w := newTestWatcher(svc, &stubProfiles{found: true, profile: sampleProfile()}, time.Now())
	w.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.getCalls() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcherDefaultsInterval(t *testing.T) {
	w := NewWatcher(Config{}, &stubService{}, &stubProfiles{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, DefaultRefreshInterval, w.interval)
	require.Equal(t, time.Local, w.loc)
}

func newTestWatcher(svc Service, profiles ProfileSource, now time.Time) *Watcher {
	return &Watcher{
		svc:      svc,
		profiles: profiles,
		interval: time.Minute,
		loc:      testLoc,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return now },
	}
}

type stubService struct {
	mu          sync.Mutex
	lastUpdate  string
	hasUpdate   bool
	err         error
	calls       int
	lastProfile profile.UserProfile
}

func (s *stubService) GetDailyReading(_ context.Context, p profile.UserProfile) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastProfile = p
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Reading: sampleResponse(), Source: SourceNetwork}, nil
}

func (s *stubService) Refresh(ctx context.Context, p profile.UserProfile) (Result, error) {
	return s.GetDailyReading(ctx, p)
}

func (s *stubService) ClearCachedReading(context.Context) error { return nil }

func (s *stubService) LastUpdate(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate, s.hasUpdate, nil
}

func (s *stubService) getCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubProfiles struct {
	profile profile.UserProfile
	found   bool
}

func (s *stubProfiles) Load(context.Context) (profile.UserProfile, bool, error) {
	return s.profile, s.found, nil
}

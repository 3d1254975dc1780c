package reading

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-daily/internal/domain/kv"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/infra/kvstore"
	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

var testLoc = time.FixedZone("UTC+7", 7*60*60)

func TestShouldRefresh(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, testLoc)

	tests := []struct {
		name string
		ts   string
		want bool
	}{
		{"same instant", now.UTC().Format(isoLayout), false},
		{"earlier same local day", time.Date(2024, 7, 1, 0, 0, 1, 0, testLoc).Format(time.RFC3339), false},
		{"utc date differs but local day matches", "2024-06-30T17:30:00.000Z", false},
		{"previous day", time.Date(2024, 6, 30, 10, 0, 0, 0, testLoc).Format(time.RFC3339), true},
		{"same day previous month", time.Date(2024, 6, 1, 10, 0, 0, 0, testLoc).Format(time.RFC3339), true},
		{"same day previous year", time.Date(2023, 7, 1, 10, 0, 0, 0, testLoc).Format(time.RFC3339), true},
		{"garbage", "not-a-date", true},
		{"empty", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ShouldRefresh(tc.ts, now, testLoc))
		})
	}
}

func TestShouldRefreshAcrossMidnight(t *testing.T) {
	fetchedAt := time.Date(2024, 7, 1, 23, 59, 0, 0, testLoc)
	checkedAt := time.Date(2024, 7, 2, 0, 1, 0, 0, testLoc)
	require.True(t, ShouldRefresh(fetchedAt.Format(time.RFC3339), checkedAt, testLoc))
}

func TestGetDailyReadingCachesWithinLocalDay(t *testing.T) {
	fetcher := &stubFetcher{resp: sampleResponse()}
	clock := newTestClock(time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc))
	svc := newTestService(kvstore.NewMemoryStore(), fetcher, clock, false)
	p := sampleProfile()

	first, err := svc.GetDailyReading(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, first.Source)
	require.Empty(t, first.Advisory)

	clock.advance(10 * time.Hour)
	second, err := svc.GetDailyReading(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, SourceCache, second.Source)
	require.Equal(t, first.LastUpdate, second.LastUpdate)
	if diff := cmp.Diff(first.Reading, second.Reading); diff != "" {
		t.Fatalf("cached reading differs (-first +second):\n%s", diff)
	}
	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, p, fetcher.last)
}

func TestGetDailyReadingRefreshesOnNextLocalDay(t *testing.T) {
	fetcher := &stubFetcher{resp: sampleResponse()}
	clock := newTestClock(time.Date(2024, 7, 1, 23, 59, 0, 0, testLoc))
	svc := newTestService(kvstore.NewMemoryStore(), fetcher, clock, false)

	_, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)

	clock.advance(2 * time.Minute)
	res, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, res.Source)
	require.Equal(t, 2, fetcher.calls)
}

func TestClearCachedReadingForcesFetch(t *testing.T) {
	store := kvstore.NewMemoryStore()
	fetcher := &stubFetcher{resp: sampleResponse()}
	svc := newTestService(store, fetcher, newTestClock(time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc)), false)

	_, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	require.NoError(t, svc.ClearCachedReading(context.Background()))
	require.Equal(t, 0, store.Len())

	res, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, res.Source)
	require.Equal(t, 2, fetcher.calls)
}

func TestRefreshClearsThenFetches(t *testing.T) {
	fetcher := &stubFetcher{resp: sampleResponse()}
	svc := newTestService(kvstore.NewMemoryStore(), fetcher, newTestClock(time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc)), false)

	_, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	res, err := svc.Refresh(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, SourceNetwork, res.Source)
	require.Equal(t, 2, fetcher.calls)
}

func TestTornCacheIsTreatedAsMissing(t *testing.T) {
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc)

	t.Run("timestamp without reading fetches", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(context.Background(), kv.KeyLastUpdate, now.Format(time.RFC3339)))
		fetcher := &stubFetcher{resp: sampleResponse()}
		svc := newTestService(store, fetcher, newTestClock(now), false)

		res, err := svc.GetDailyReading(context.Background(), sampleProfile())
		require.NoError(t, err)
		require.Equal(t, SourceNetwork, res.Source)
		require.Equal(t, 1, fetcher.calls)
	})

	t.Run("reading without timestamp is not a fallback", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		require.NoError(t, store.Set(context.Background(), kv.KeyDailyReading, `{"zodiac":"Rat"}`))
		fetcher := &stubFetcher{err: errors.New("connection refused")}
		svc := newTestService(store, fetcher, newTestClock(now), false)

		_, err := svc.GetDailyReading(context.Background(), sampleProfile())
		require.True(t, apperrors.IsCode(err, apperrors.CodeFetch))
	})
}

func TestFetchFailureFallsBackToStaleCache(t *testing.T) {
	store := kvstore.NewMemoryStore()
	fetcher := &stubFetcher{resp: sampleResponse()}
	clock := newTestClock(time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc))
	svc := newTestService(store, fetcher, clock, false)

	first, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)

	clock.advance(24 * time.Hour)
	fetcher.err = errors.New("connection refused")
	res, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, SourceStale, res.Source)
	require.Equal(t, AdvisoryStale, res.Advisory)
	require.Equal(t, first.LastUpdate, res.LastUpdate)
	require.Equal(t, first.Reading, res.Reading)
	require.Equal(t, 2, fetcher.calls)
}

func TestFetchFailureWithoutCache(t *testing.T) {
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc)

	t.Run("local fallback generates without persisting", func(t *testing.T) {
		store := kvstore.NewMemoryStore()
		svc := newTestService(store, &stubFetcher{err: errors.New("offline")}, newTestClock(now), true)

		res, err := svc.GetDailyReading(context.Background(), profile.UserProfile{BirthYear: 2000, BirthMonth: 1, BirthDay: 1})
		require.NoError(t, err)
		require.Equal(t, SourceLocal, res.Source)
		require.Equal(t, AdvisoryLocal, res.Advisory)
		require.Equal(t, "Dragon", res.Reading.Zodiac)
		require.Equal(t, 0, store.Len())
	})

	t.Run("fetch error without fallback", func(t *testing.T) {
		cause := errors.New("offline")
		svc := newTestService(kvstore.NewMemoryStore(), &stubFetcher{err: cause}, newTestClock(now), false)

		_, err := svc.GetDailyReading(context.Background(), sampleProfile())
		require.Error(t, err)
		require.True(t, apperrors.IsCode(err, apperrors.CodeFetch))
		require.ErrorIs(t, err, cause)
		require.Equal(t, MessageNoConnection, apperrors.MessageOf(err))
	})
}

func TestPersistFailureKeepsKeysConsistent(t *testing.T) {
	store := &faultyStore{MemoryStore: kvstore.NewMemoryStore(), failSet: kv.KeyLastUpdate}
	svc := newTestService(store, &stubFetcher{resp: sampleResponse()}, newTestClock(time.Date(2024, 7, 1, 8, 0, 0, 0, testLoc)), false)

	res, err := svc.GetDailyReading(context.Background(), sampleProfile())
	require.NoError(t, err)
	require.Equal(t, AdvisoryNotSaved, res.Advisory)
	require.Equal(t, 0, store.Len())
}

func TestClearCachedReadingAttemptsBothKeys(t *testing.T) {
	store := &faultyStore{MemoryStore: kvstore.NewMemoryStore(), failRemove: kv.KeyDailyReading}
	require.NoError(t, store.Set(context.Background(), kv.KeyDailyReading, "{}"))
	require.NoError(t, store.Set(context.Background(), kv.KeyLastUpdate, "2024-07-01T00:00:00Z"))
	svc := newTestService(store, &stubFetcher{}, newTestClock(time.Now()), false)

	err := svc.ClearCachedReading(context.Background())
	require.True(t, apperrors.IsCode(err, apperrors.CodeStore))
	_, ok, _ := store.Get(context.Background(), kv.KeyLastUpdate)
	require.False(t, ok)
}

func newTestService(store kv.Store, fetcher Fetcher, clock *testClock, localFallback bool) *service {
	return &service{
		cfg:       Config{Location: testLoc, LocalFallback: localFallback},
		store:     store,
		fetcher:   fetcher,
		generator: NewLocalGenerator(testLoc),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       clock.now,
	}
}

func sampleProfile() profile.UserProfile {
	return profile.UserProfile{BirthYear: 1990, BirthMonth: 5, BirthDay: 17, BirthTime: &profile.BirthTime{Hour: 6, Minute: 30}}
}

func sampleResponse() Response {
	return Response{
		Zodiac:          "Horse",
		HourZodiac:      "Rabbit",
		DominantElement: "Fire",
		ElementPercent:  40,
		ElementalBalance: map[string]float64{
			"Wood": 20, "Fire": 40, "Earth": 15, "Metal": 10, "Water": 15,
		},
		Reading: "Fire's lit but reckless.",
		Date:    "2024-07-01T01:00:00.000Z",
	}
}

type testClock struct {
	current time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{current: start}
}

func (c *testClock) now() time.Time {
	return c.current
}

func (c *testClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type stubFetcher struct {
	resp  Response
	err   error
	calls int
	last  profile.UserProfile
}

func (s *stubFetcher) Fetch(_ context.Context, p profile.UserProfile) (Response, error) {
	s.calls++
	s.last = p
	if s.err != nil {
		return Response{}, s.err
	}
	return s.resp, nil
}

type faultyStore struct {
	*kvstore.MemoryStore
	failSet    string
	failRemove string
}

func (s *faultyStore) Set(ctx context.Context, key, value string) error {
	if key == s.failSet {
		return errors.New("write failed")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *faultyStore) Remove(ctx context.Context, key string) error {
	if key == s.failRemove {
		return errors.New("remove failed")
	}
	return s.MemoryStore.Remove(ctx, key)
}

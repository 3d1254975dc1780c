package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	"github.com/yanqian/astro-daily/internal/infra/config"
	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

var sampleReading = reading.Response{
	Zodiac:           "Dragon",
	DominantElement:  "Fire",
	ElementPercent:   40,
	ElementalBalance: map[string]float64{"Wood": 10, "Fire": 40, "Earth": 20, "Metal": 20, "Water": 10},
	Reading:          "Go big.",
	Date:             "2024-05-01",
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)
	recorder := performRequest(http.MethodGet, "/healthz", "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_PutProfileValidates(t *testing.T) {
	env := newTestEnv(t)

	recorder := performRequest(http.MethodPut, "/api/v1/profile", `{"birthYear":1990,"birthMonth":13,"birthDay":1}`, env.server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "validation_error", errBody["error"]["code"])
	require.Equal(t, "Invalid Month (1-12)", errBody["error"]["message"])

	recorder = performRequest(http.MethodPut, "/api/v1/profile", `{"birthYear":"x"}`, env.server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "invalid_request", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_ProfileRoundTripClearsReadingOnChange(t *testing.T) {
	env := newTestEnv(t)

	recorder := performRequest(http.MethodGet, "/api/v1/profile", "", env.server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "profile_not_found", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodPut, "/api/v1/profile", `{"birthYear":2000,"birthMonth":2,"birthDay":3,"gender":"Female"}`, env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Zero(t, env.readings.clears)

	recorder = performRequest(http.MethodGet, "/api/v1/profile", "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var got profile.UserProfile
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, profile.GenderFemale, got.Gender)

	performRequest(http.MethodPut, "/api/v1/profile", `{"birthYear":2000,"birthMonth":2,"birthDay":3,"gender":"female"}`, env.server)
	require.Zero(t, env.readings.clears)

	performRequest(http.MethodPut, "/api/v1/profile", `{"birthYear":2001,"birthMonth":2,"birthDay":3}`, env.server)
	require.Equal(t, 1, env.readings.clears)
}

func TestRouter_ReadingRequiresProfile(t *testing.T) {
	env := newTestEnv(t)
	recorder := performRequest(http.MethodGet, "/api/v1/reading", "", env.server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_ReadingIncludesChart(t *testing.T) {
	env := newTestEnv(t)
	env.saveProfile(t)
	env.readings.result = reading.Result{Reading: sampleReading, Source: reading.SourceStale, Advisory: reading.AdvisoryStale}

	recorder := performRequest(http.MethodGet, "/api/v1/reading", "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Reading   reading.Response `json:"reading"`
		Source    string           `json:"source"`
		Advisory  string           `json:"advisory"`
		Traits    string           `json:"traits"`
		SignColor string           `json:"signColor"`
		Chart     []struct {
			Element string  `json:"element"`
			Percent float64 `json:"percent"`
			Color   string  `json:"color"`
		} `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "Dragon", body.Reading.Zodiac)
	require.Equal(t, "stale", body.Source)
	require.Equal(t, reading.AdvisoryStale, body.Advisory)
	require.Equal(t, "chaotic visionary", body.Traits)
	require.Len(t, body.Chart, 5)
	require.Equal(t, "Wood", body.Chart[0].Element)
	require.Equal(t, "#4CAF50", body.Chart[0].Color)
	require.Equal(t, 40.0, body.Chart[1].Percent)
	require.Equal(t, 0, env.readings.refreshes)

	performRequest(http.MethodGet, "/api/v1/reading?refresh=true", "", env.server)
	require.Equal(t, 1, env.readings.refreshes)
}

func TestRouter_ReadingFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	env.saveProfile(t)
	env.readings.err = apperrors.Wrap(apperrors.CodeFetch, reading.MessageNoConnection, context.DeadlineExceeded)

	recorder := performRequest(http.MethodGet, "/api/v1/reading", "", env.server)
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "fetch_error", errBody["error"]["code"])
	require.Equal(t, reading.MessageNoConnection, errBody["error"]["message"])
}

func TestRouter_ClearReadingCache(t *testing.T) {
	env := newTestEnv(t)
	env.readings.clearErr = apperrors.Wrap(apperrors.CodeStore, "could not clear cached reading", nil)

	recorder := performRequest(http.MethodDelete, "/api/v1/reading/cache", "", env.server)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, 1, env.readings.clears)
}

func TestRouter_Zodiac(t *testing.T) {
	env := newTestEnv(t)

	recorder := performRequest(http.MethodGet, "/api/v1/zodiac?year=2000&hour=23", "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Equal(t, "Dragon", body["sign"])
	require.Equal(t, "Rat", body["hourSign"])
	require.Equal(t, "Metal", body["element"])

	recorder = performRequest(http.MethodGet, "/api/v1/zodiac?year=abc", "", env.server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/zodiac?year=2000&hour=24", "", env.server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_ChatFlow(t *testing.T) {
	env := newTestEnv(t)

	recorder := performRequest(http.MethodPost, "/api/v1/chat/sessions", "", env.server)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var session chat.SessionView
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &session))
	require.Equal(t, chat.WelcomeText, session.Messages[0].Text)

	recorder = performRequest(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/messages", `{"message":"hello"}`, env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var ex chat.Exchange
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &ex))
	require.Equal(t, "hello", ex.User.Text)
	require.Equal(t, "stars: hello", ex.Reply.Text)

	recorder = performRequest(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/messages", `{"message":"  "}`, env.server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "validation_error", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])

	recorder = performRequest(http.MethodPost, "/api/v1/chat/sessions/"+session.ID+"/reset", "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Network settings have been reset.")

	recorder = performRequest(http.MethodGet, "/api/v1/chat/sessions/"+session.ID, "", env.server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &session))
	require.Len(t, session.Messages, 4)
}

func TestRouter_ChatUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	recorder := performRequest(http.MethodGet, "/api/v1/chat/sessions/nope", "", env.server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()
	env.server.Handler.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2}, func() time.Time { return now })

	require.True(t, limiter.allow("1.2.3.4"))
	require.True(t, limiter.allow("1.2.3.4"))
	require.False(t, limiter.allow("1.2.3.4"))
	require.True(t, limiter.allow("5.6.7.8"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("1.2.3.4"))
}

type testEnv struct {
	server   *http.Server
	profiles profile.Repository
	readings *stubReadings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := newTestLogger()
	profiles := profile.NewRepository(newMapStore(), logger)
	readings := &stubReadings{}
	chats := chat.NewService(chat.Config{WebhookURL: "https://hooks.example/astro", RelayTemplate: "https://relay.example/?"}, echoTransport{}, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			CORSOrigins:  []string{"http://localhost:5173"},
		},
	}
	return &testEnv{
		server:   NewRouter(cfg, NewHandler(profiles, readings, chats, logger)),
		profiles: profiles,
		readings: readings,
	}
}

func (e *testEnv) saveProfile(t *testing.T) {
	t.Helper()
	_, err := e.profiles.Save(context.Background(), profile.UserProfile{BirthYear: 2000, BirthMonth: 2, BirthDay: 3})
	require.NoError(t, err)
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)
	return recorder
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubReadings struct {
	result    reading.Result
	err       error
	clearErr  error
	clears    int
	refreshes int
}

func (s *stubReadings) GetDailyReading(context.Context, profile.UserProfile) (reading.Result, error) {
	return s.result, s.err
}

func (s *stubReadings) Refresh(ctx context.Context, p profile.UserProfile) (reading.Result, error) {
	s.refreshes++
	return s.GetDailyReading(ctx, p)
}

func (s *stubReadings) ClearCachedReading(context.Context) error {
	s.clears++
	return s.clearErr
}

func (s *stubReadings) LastUpdate(context.Context) (string, bool, error) {
	return "", false, nil
}

type echoTransport struct{}

func (echoTransport) Post(_ context.Context, _ string, req chat.Request) (chat.Reply, error) {
	return chat.Reply{Output: "stars: " + req.Message}, nil
}

type mapStore struct {
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string]string{}}
}

func (m *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *mapStore) Remove(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestFromDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.Wrap(apperrors.CodeValidation, "bad", nil), http.StatusBadRequest, "validation_error"},
		{apperrors.Wrap(apperrors.CodeNotFound, "gone", nil), http.StatusNotFound, "not_found"},
		{apperrors.Wrap(apperrors.CodeFetch, "down", nil), http.StatusBadGateway, "fetch_error"},
		{apperrors.Wrap(apperrors.CodeStore, "disk", nil), http.StatusInternalServerError, "store_error"},
		{apperrors.Wrap("other", "x", nil), http.StatusInternalServerError, "internal_error"},
		{context.Canceled, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		got := fromDomainError(tc.err)
		require.Equal(t, tc.status, got.Status)
		require.Equal(t, tc.code, got.Code)
	}
}

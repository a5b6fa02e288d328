package microservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachastral/astro-daily/pkg/content"
	"github.com/coachastral/astro-daily/pkg/microservice"
	"github.com/coachastral/astro-daily/pkg/upstream"
)

// stubProvider answers each operation from a canned function and records
// the arguments it was called with.
type stubProvider struct {
	dailyFn   func(force bool) (*content.DailyHoroscope, error)
	tarotFn   func(clientID string, live bool) (*content.TarotResult, error)
	moonFn    func(force bool) (*content.MoonReport, error)
	articleFn func(force bool) (*content.DailyArticle, error)

	detailedForce bool
	tarotClientID string
	tarotLive     bool
}

func (s *stubProvider) Daily(_ context.Context, force bool) (*content.DailyHoroscope, error) {
	if s.dailyFn != nil {
		return s.dailyFn(force)
	}
	return &content.DailyHoroscope{DateKey: "2026-08-30", Signs: map[string]content.SignContent{}}, nil
}

func (s *stubProvider) Detailed(_ context.Context, force bool) (*content.DailyHoroscope, error) {
	s.detailedForce = force
	return &content.DailyHoroscope{DateKey: "2026-08-30", Signs: map[string]content.SignContent{}}, nil
}

func (s *stubProvider) Tarot(_ context.Context, clientID string, live bool) (*content.TarotResult, error) {
	s.tarotClientID = clientID
	s.tarotLive = live
	if s.tarotFn != nil {
		return s.tarotFn(clientID, live)
	}
	return &content.TarotResult{Date: "2026-08-30", DeviceIDUsed: clientID, Live: live}, nil
}

func (s *stubProvider) Moon(_ context.Context, force bool) (*content.MoonReport, error) {
	if s.moonFn != nil {
		return s.moonFn(force)
	}
	return &content.MoonReport{Date: "2026-08-30", LunaDeHoy: "Luna llena."}, nil
}

func (s *stubProvider) Article(_ context.Context, force bool) (*content.DailyArticle, error) {
	if s.articleFn != nil {
		return s.articleFn(force)
	}
	return &content.DailyArticle{Date: "2026-08-30", Article: "El cielo de hoy."}, nil
}

func newTestMux(t *testing.T, provider microservice.ContentProvider) *http.ServeMux {
	t.Helper()
	clock, err := content.NewClock("UTC")
	require.NoError(t, err)

	mux := http.NewServeMux()
	microservice.NewAPI(provider, clock, zerolog.Nop()).Register(mux)
	return mux
}

func doRequest(mux *http.ServeMux, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDailyRoutes(t *testing.T) {
	t.Run("Today serves the horoscope without forcing", func(t *testing.T) {
		var gotForce *bool
		provider := &stubProvider{dailyFn: func(force bool) (*content.DailyHoroscope, error) {
			gotForce = &force
			return &content.DailyHoroscope{DateKey: "2026-08-30", Cached: true}, nil
		}}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodGet, "/api/horoscope/today", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		require.NotNil(t, gotForce)
		assert.False(t, *gotForce)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "2026-08-30", body["date_key"])
		assert.Equal(t, true, body["_cached"])
	})

	t.Run("Refresh forces a recompute", func(t *testing.T) {
		var gotForce *bool
		provider := &stubProvider{dailyFn: func(force bool) (*content.DailyHoroscope, error) {
			gotForce = &force
			return &content.DailyHoroscope{DateKey: "2026-08-30"}, nil
		}}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodGet, "/api/horoscope/refresh", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotForce)
		assert.True(t, *gotForce)
	})
}

func TestDetailedForceTriggers(t *testing.T) {
	cases := []struct {
		name   string
		target string
		force  bool
	}{
		{"Plain request does not force", "/api/horoscope/detailed/today", false},
		{"Explicit force parameter forces", "/api/horoscope/detailed/today?force=1", true},
		{"Cache-busting timestamp forces", "/api/horoscope/detailed/today?t=1756500000", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{}
			mux := newTestMux(t, provider)

			rec := doRequest(mux, http.MethodGet, tc.target, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.force, provider.detailedForce)
		})
	}
}

func TestTarotRoute(t *testing.T) {
	t.Run("Explicit device id is passed through", func(t *testing.T) {
		provider := &stubProvider{}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodGet, "/api/tarot?device_id=my-tablet", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "my-tablet", provider.tarotClientID)
		assert.False(t, provider.tarotLive)
	})

	t.Run("Missing device id derives a stable fallback", func(t *testing.T) {
		provider := &stubProvider{}
		mux := newTestMux(t, provider)

		header := http.Header{}
		header.Set("User-Agent", "AggregatorApp/2.1")
		header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

		doRequest(mux, http.MethodGet, "/api/tarot", header)
		first := provider.tarotClientID
		require.NotEmpty(t, first)

		doRequest(mux, http.MethodGet, "/api/tarot", header)
		assert.Equal(t, first, provider.tarotClientID, "same agent and address must map to the same client")
	})

	t.Run("Live parameter requests an unseeded draw", func(t *testing.T) {
		provider := &stubProvider{}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodGet, "/api/tarot?device_id=my-tablet&live=1", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, provider.tarotLive)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"Quota exhaustion maps to 429 with the trial code",
			upstream.NewError(upstream.KindQuotaExceeded, "astrologyapi", "daily", errors.New("TRIAL_REQUEST_LIMIT_EXCEEDED")),
			http.StatusTooManyRequests,
			"ASTRO_TRIAL_LIMIT",
		},
		{
			"Auth rejection maps to 502",
			upstream.NewError(upstream.KindAuth, "astrologyapi", "daily", errors.New("credential rejected")),
			http.StatusBadGateway,
			"UPSTREAM_AUTH",
		},
		{
			"Malformed response maps to 502",
			upstream.NewError(upstream.KindMalformedResponse, "astrologyapi", "daily", errors.New("not json")),
			http.StatusBadGateway,
			"UPSTREAM_MALFORMED",
		},
		{
			"Connectivity fault maps to 503",
			upstream.NewError(upstream.KindConnectivity, "astrologyapi", "daily", errors.New("timeout")),
			http.StatusServiceUnavailable,
			"UPSTREAM_UNAVAILABLE",
		},
		{
			"Missing configuration maps to 500",
			upstream.NewError(upstream.KindConfiguration, "astrologyapi", "daily", errors.New("no key")),
			http.StatusInternalServerError,
			"CONFIG_ERROR",
		},
		{
			"Unclassified error maps to a generic 500",
			errors.New("boom"),
			http.StatusInternalServerError,
			"SERVER_ERROR",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &stubProvider{dailyFn: func(bool) (*content.DailyHoroscope, error) {
				return nil, tc.err
			}}
			mux := newTestMux(t, provider)

			rec := doRequest(mux, http.MethodGet, "/api/horoscope/today", nil)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var payload struct {
				DateKey string `json:"date_key"`
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tc.wantCode, payload.Error)
			assert.NotEmpty(t, payload.DateKey)
			assert.NotEmpty(t, payload.Message)
			assert.LessOrEqual(t, len(payload.Message), 300)
		})
	}

	t.Run("Quota payload carries the friendly Spanish message", func(t *testing.T) {
		provider := &stubProvider{moonFn: func(bool) (*content.MoonReport, error) {
			return nil, upstream.NewError(upstream.KindQuotaExceeded, "astrologyapi", "moon", errors.New("limit"))
		}}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodGet, "/moon-today", nil)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Contains(t, payload["message"], "Vuelve mañana")
	})
}

func TestCORS(t *testing.T) {
	t.Run("Responses carry permissive CORS headers", func(t *testing.T) {
		mux := newTestMux(t, &stubProvider{})

		rec := doRequest(mux, http.MethodGet, "/api/horoscope/today", nil)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("Preflight is answered without touching the provider", func(t *testing.T) {
		provider := &stubProvider{dailyFn: func(bool) (*content.DailyHoroscope, error) {
			t.Fatal("provider must not be called for preflight")
			return nil, nil
		}}
		mux := newTestMux(t, provider)

		rec := doRequest(mux, http.MethodOptions, "/api/horoscope/today", nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealth(t *testing.T) {
	mux := newTestMux(t, &stubProvider{})

	rec := doRequest(mux, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["ok"])
	assert.NotEmpty(t, payload["date"])
}

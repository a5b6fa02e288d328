package microservice

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coachastral/astro-daily/pkg/content"
	"github.com/coachastral/astro-daily/pkg/dailycache"
	"github.com/coachastral/astro-daily/pkg/upstream"
)

// maxErrorMessage bounds the human-readable message in error payloads.
const maxErrorMessage = 300

// ContentProvider is the content surface the handlers consume. Satisfied
// by *content.Service.
type ContentProvider interface {
	Daily(ctx context.Context, force bool) (*content.DailyHoroscope, error)
	Detailed(ctx context.Context, force bool) (*content.DailyHoroscope, error)
	Tarot(ctx context.Context, clientID string, live bool) (*content.TarotResult, error)
	Moon(ctx context.Context, force bool) (*content.MoonReport, error)
	Article(ctx context.Context, force bool) (*content.DailyArticle, error)
}

// API registers the content routes and renders responses.
type API struct {
	provider ContentProvider
	clock    content.Clock
	logger   zerolog.Logger
}

// NewAPI creates the handler set.
func NewAPI(provider ContentProvider, clock content.Clock, logger zerolog.Logger) *API {
	return &API{
		provider: provider,
		clock:    clock,
		logger:   logger.With().Str("component", "API").Logger(),
	}
}

// Register attaches all content routes to the mux, wrapped in the CORS and
// request-logging middleware.
func (a *API) Register(mux *http.ServeMux) {
	wrap := func(h http.HandlerFunc) http.Handler {
		return WithCORS(WithRequestLog(a.logger, h))
	}
	mux.Handle("GET /api/horoscope/today", wrap(a.handleDaily(false)))
	mux.Handle("GET /api/horoscope/refresh", wrap(a.handleDaily(true)))
	mux.Handle("GET /api/horoscope/detailed/today", wrap(a.handleDetailed))
	mux.Handle("GET /api/tarot", wrap(a.handleTarot))
	mux.Handle("GET /moon-today", wrap(a.handleMoon))
	mux.Handle("GET /daily-astrology-article", wrap(a.handleArticle))
	mux.Handle("GET /health", wrap(a.handleHealth))
	mux.Handle("OPTIONS /", WithCORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
}

func (a *API) handleDaily(force bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := a.provider.Daily(r.Context(), force)
		if err != nil {
			a.writeError(w, err)
			return
		}
		a.writeJSON(w, http.StatusOK, result)
	}
}

func (a *API) handleDetailed(w http.ResponseWriter, r *http.Request) {
	// The front-end appends ?t=<timestamp> when the user taps refresh, so
	// its presence forces a recompute just like an explicit force=1.
	query := r.URL.Query()
	force := query.Get("force") == "1" || query.Has("t")

	result, err := a.provider.Detailed(r.Context(), force)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleTarot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	live := query.Get("live") == "1"
	clientID := dailycache.DeriveClientID(query.Get("device_id"), r.UserAgent(), clientIP(r))

	result, err := a.provider.Tarot(r.Context(), clientID, live)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleMoon(w http.ResponseWriter, r *http.Request) {
	result, err := a.provider.Moon(r.Context(), r.URL.Query().Get("force") == "1")
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleArticle(w http.ResponseWriter, r *http.Request) {
	result, err := a.provider.Article(r.Context(), r.URL.Query().Get("force") == "1")
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "date": a.clock.DayKey()})
}

type errorPayload struct {
	DateKey string `json:"date_key"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError renders a classified failure as a structured payload with a
// stable code. A genuine failure is never dressed up as a 200 with
// placeholder content.
func (a *API) writeError(w http.ResponseWriter, err error) {
	kind := upstream.KindOf(err)

	status := http.StatusInternalServerError
	code := kind.String()
	message := err.Error()

	switch kind {
	case upstream.KindQuotaExceeded:
		status = http.StatusTooManyRequests
		code = "ASTRO_TRIAL_LIMIT"
		message = "Hoy no se ha podido generar el contenido completo. Vuelve mañana ✨"
	case upstream.KindAuth, upstream.KindMalformedResponse:
		status = http.StatusBadGateway
	case upstream.KindConnectivity:
		status = http.StatusServiceUnavailable
	case upstream.KindConfiguration:
		status = http.StatusInternalServerError
	default:
		code = "SERVER_ERROR"
	}

	if len(message) > maxErrorMessage {
		message = message[:maxErrorMessage]
	}

	a.logger.Error().Err(err).Str("code", code).Int("status", status).Msg("Request failed.")
	a.writeJSON(w, status, errorPayload{DateKey: a.clock.DayKey(), Error: code, Message: message})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode response body.")
	}
}

// clientIP extracts the originating address, preferring the first entry of
// X-Forwarded-For so the fallback client id stays stable behind proxies.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

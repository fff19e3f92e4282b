package web

import (
	"net/http"
	"strings"
	"time"

	"assistant-relay/internal/config"
	"assistant-relay/internal/domain/ports/repository"
	red "assistant-relay/internal/infra/redis"
	"assistant-relay/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server wires the relay HTTP surface: the job broker endpoints, the live
// stream, and the mirror/presence routes the worker and clients share.
type Server struct {
	jobs     usecase.JobUseCase
	presence repository.PresenceRepository
	mirror   repository.MirrorRepository
	limiter  *red.RateLimiter
	cfg      config.ServerConfig
	log      *zerolog.Logger
}

func NewServer(
	jobs usecase.JobUseCase,
	presence repository.PresenceRepository,
	mirror repository.MirrorRepository,
	limiter *red.RateLimiter,
	cfg config.ServerConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		jobs:     jobs,
		presence: presence,
		mirror:   mirror,
		limiter:  limiter,
		cfg:      cfg,
		log:      &l,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "assistant-relay"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Mount("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/jobs", s.handleSubmit)
		r.Get("/jobs/next", s.handleFetchNext)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/jobs/{id}/stream", s.handleStream)
		r.Post("/jobs/{id}/complete", s.handleComplete)
		r.Post("/jobs/{id}/error", s.handleFail)
		r.Post("/jobs/{id}/cancel", s.handleCancel)
		r.Post("/jobs/{id}/chunk", s.handleAppendChunk)

		r.Get("/status", s.handleStatus)
		r.Post("/worker/heartbeat", s.handleHeartbeat)

		r.Get("/tasks", s.handleGetTasks)
		r.Post("/tasks", s.handleSetTasks)
		r.Get("/personal", s.handleGetPersonal)
		r.Post("/personal", s.handleSetPersonal)
		r.Get("/weather", s.handleGetWeather)
		r.Post("/weather", s.handleSetWeather)
	})

	return r
}

// authMiddleware checks the shared API key: "Authorization: Bearer <key>",
// or ?token=<key> for EventSource clients that cannot set headers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			s.log.Error().Msg("server.api_key is not configured")
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		token := ""
		if hdr := r.Header.Get("Authorization"); hdr != "" {
			parts := strings.SplitN(hdr, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		if token != s.cfg.APIKey {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestTimeout bounds short request handlers; the SSE endpoint manages its
// own lifetime and must not use it.
const requestTimeout = 10 * time.Second

// rateWindow is the sliding window for the per-user submit limiter.
const rateWindow = time.Minute

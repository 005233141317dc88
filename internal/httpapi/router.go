// Package httpapi maps the assessment service onto a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/assessment-cli/internal/assessment"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// RequestTimeout bounds each request. Defaults to 30s.
	RequestTimeout time.Duration
}

// Router serves the assessment API.
type Router struct {
	svc    *assessment.Service
	health Pinger
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc *assessment.Service, health Pinger, opts Options) http.Handler {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	rt := &Router{svc: svc, health: health}
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	mux.Use(instrument)
	mux.Use(middleware.Timeout(opts.RequestTimeout))

	mux.Get("/health", rt.wrap(rt.handleHealth))
	mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	mux.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", rt.wrap(rt.handleAnalyze))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", rt.wrap(rt.handleCreateSession))
			r.Get("/", rt.wrap(rt.handleListSessions))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.wrap(rt.handleGetSession))
				r.Post("/begin", rt.wrap(rt.handleBegin))
				r.Get("/next", rt.wrap(rt.handleNextQuestion))
				r.Get("/answers", rt.wrap(rt.handleListAnswers))
				r.Put("/answers/{questionID}", rt.wrap(rt.handleSubmitAnswer))
				r.Post("/answers/{questionID}/skip", rt.wrap(rt.handleSkipQuestion))
				r.Post("/complete", rt.wrap(rt.handleComplete))
				r.Post("/abandon", rt.wrap(rt.handleAbandon))
				r.Post("/reanalyze", rt.wrap(rt.handleReanalyze))
				r.Get("/results", rt.wrap(rt.handleListResults))
				r.Get("/results/latest", rt.wrap(rt.handleLatestResult))
			})
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap converts a returned error into a JSON error response.
func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

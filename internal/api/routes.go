package api

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouteOptions configures the router beyond the handlers themselves
type RouteOptions struct {
	CORSOrigins    []string
	PublicDir      string        // served under /public/ when it exists
	RequestTimeout time.Duration // zero disables the timeout
	Metrics        http.Handler  // mounted at /metrics when set
}

func (h *Handler) Routes(m *Middleware, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(m.CORS(opts.CORSOrigins))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	// Live updates stream indefinitely, so they skip compression and the timeout
	if h.sseHandler != nil {
		r.Get("/events/stream", h.HandleSSE)
	}
	if h.wsHandler != nil {
		r.Get("/events/ws", h.HandleWebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(m.Compress)
		r.Use(m.Timeout(opts.RequestTimeout))

		r.Get("/", h.Hello)
		r.Post("/author", h.CreateAuthor)

		// Listing and posts need the Author 1-* Post association
		if h.svc.Relational() {
			r.Get("/authors", h.ListAuthors)
			r.Post("/post", h.CreatePost)
			r.Route("/authors/{id}", func(r chi.Router) {
				r.Get("/posts", h.PostsByAuthor)
				r.Post("/post", h.CreatePostForAuthor)
			})
			r.Get("/posts/{id}/author", h.AuthorOfPost)
		}

		if opts.PublicDir != "" {
			if info, err := os.Stat(opts.PublicDir); err == nil && info.IsDir() {
				fs := http.StripPrefix("/public/", http.FileServer(http.Dir(opts.PublicDir)))
				r.Handle("/public/*", fs)
			} else {
				h.logger.Infow("Static directory not found; /public disabled", "dir", opts.PublicDir)
			}
		}
	})

	return r
}

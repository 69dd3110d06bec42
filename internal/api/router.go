package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/logger"
)

// NewRouter creates a chi router with all API routes mounted.
// defaultToken is used for requests without a bearer token; it may be empty.
func NewRouter(f *finder.Service, defaultToken string, log *zap.Logger) chi.Router {
	log = logger.OrNop(log)
	h := NewHandler(f, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, RequestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		// Index lookups need no repository credential.
		r.Post("/find", h.Find)

		r.Group(func(r chi.Router) {
			r.Use(CredentialMiddleware(defaultToken))
			r.Get("/hubs", h.ListHubs)
			r.Post("/download-url", h.DownloadURL)
			r.Post("/find-and-download", h.FindAndDownload)
			r.Post("/navigate", h.Navigate)
		})
	})
	return r
}

// Package rest exposes the file service over HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/cloudservice/internal/logging"
	"github.com/dmitrijs2005/cloudservice/internal/server/auth"
)

// NewRouter wires middlewares and routes. gatherer serves /metrics and may
// be nil, in which case the route is not mounted.
func NewRouter(h *Handler, gate *auth.Gate, m *Metrics, gatherer prometheus.Gatherer, l logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(l))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(gate.Middleware)

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Post("/file", h.UploadFile)
	r.Delete("/file", h.DeleteFile)
	r.Put("/file", h.RenameFile)
	r.Get("/file", h.GetFile)
	r.Get("/list", h.ListFiles)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Message: "Not found", ID: newErrorID()})
	})

	return r
}

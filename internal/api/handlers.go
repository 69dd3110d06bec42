package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/docseek/docseek/internal/apperr"
	"github.com/docseek/docseek/internal/dm"
	"github.com/docseek/docseek/internal/finder"
	"github.com/docseek/docseek/internal/navigator"
	"github.com/docseek/docseek/internal/search"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	finder *finder.Service
	logger *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(f *finder.Service, log *zap.Logger) *Handler {
	return &Handler{finder: f, logger: log}
}

// FindResponse is the body of POST /v1/find.
type FindResponse struct {
	Matches []search.Match `json:"matches"`
}

// Find handles POST /v1/find.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	var q finder.Query
	if !decode(w, r, &q) {
		return
	}
	if q.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}
	matches, err := h.finder.Find(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FindResponse{Matches: matches})
}

// DownloadURL handles POST /v1/download-url.
func (h *Handler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Href string `json:"href"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Href == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("href is required"))
		return
	}
	d, err := h.finder.SignedURL(r.Context(), credential(r), req.Href)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// FindAndDownloadResponse is the body of POST /v1/find-and-download.
type FindAndDownloadResponse struct {
	Download finder.Download `json:"download"`
	Matches  []search.Match  `json:"matches"`
}

// FindAndDownload handles POST /v1/find-and-download.
func (h *Handler) FindAndDownload(w http.ResponseWriter, r *http.Request) {
	var q finder.Query
	if !decode(w, r, &q) {
		return
	}
	if q.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query is required"))
		return
	}
	d, matches, err := h.finder.FindAndSign(r.Context(), credential(r), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FindAndDownloadResponse{Download: d, Matches: matches})
}

// ListHubs handles GET /v1/hubs.
func (h *Handler) ListHubs(w http.ResponseWriter, r *http.Request) {
	hubs, err := h.finder.ListHubs(r.Context(), credential(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hubs": hubs})
}

// NavigateResponse is the body of POST /v1/navigate.
type NavigateResponse struct {
	Node     dm.Node          `json:"node"`
	Trail    []dm.Node        `json:"trail"`
	Download *finder.Download `json:"download,omitempty"`
}

// Navigate handles POST /v1/navigate.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var p navigator.Path
	if !decode(w, r, &p) {
		return
	}
	if p.Hub == "" || p.Project == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("hub and project are required"))
		return
	}
	cred := credential(r)
	node, trail, err := h.finder.Navigate(r.Context(), cred, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := NavigateResponse{Node: node, Trail: trail}
	if node.Kind == dm.KindFile {
		d, err := h.finder.SignedURL(r.Context(), cred, node.StorageLink)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		d.Name = node.Name
		resp.Download = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// StatusFor maps a resolution error to an HTTP status.
func StatusFor(err error) int {
	var le *apperr.IndexLoadError
	switch {
	case errors.Is(err, apperr.ErrAuthenticationExpired):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrResolutionNotFound), errors.Is(err, apperr.ErrNoConfidentMatch):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrMalformedLocator):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrSignedURLMissing):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrEmbeddingService), errors.Is(err, finder.ErrNoIndex), errors.As(err, &le):
		return http.StatusServiceUnavailable
	}
	if _, ok := apperr.IsUpstream(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	} else {
		h.logger.Debug("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorBody(msg))
}

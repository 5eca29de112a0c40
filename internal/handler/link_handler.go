package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/darkodi/shortlinks/internal/code"
	apperrors "github.com/darkodi/shortlinks/internal/errors"
	"github.com/darkodi/shortlinks/internal/logger"
	"github.com/darkodi/shortlinks/internal/metrics"
	"github.com/darkodi/shortlinks/internal/middleware"
	"github.com/darkodi/shortlinks/internal/model"
	"github.com/darkodi/shortlinks/internal/service"
)

// maxBodyBytes caps the create request body
const maxBodyBytes = 1 << 20

// LinkHandler handles HTTP requests for link operations
type LinkHandler struct {
	service *service.LinkService
	log     *logger.Logger
	metrics *metrics.Metrics
	version string
}

// NewLinkHandler creates a new handler instance. m may be nil, in which
// case /metrics is not mounted.
func NewLinkHandler(svc *service.LinkService, log *logger.Logger, m *metrics.Metrics, version string) *LinkHandler {
	return &LinkHandler{
		service: svc,
		log:     log,
		metrics: m,
		version: version,
	}
}

// ============ HANDLERS ============

// HandleCreate creates a new link
// POST /links
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req model.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.InvalidJSON(err.Error()).WriteJSON(w)
		return
	}

	resp, err := h.service.CreateLink(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// No configured base URL: answer relative to the host that was asked
	if strings.HasPrefix(resp.ShortURL, "/") {
		resp.ShortURL = requestBaseURL(r) + resp.ShortURL
	}

	h.log.Ctx(r.Context()).Info("link created", "code", resp.Code, "requested", req.Code != "")
	writeJSON(w, http.StatusCreated, resp)
}

// HandleList returns every link, newest first
// GET /links
func (h *LinkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListLinks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// HandleGet returns one link with its counters
// GET /links/{code}
func (h *LinkHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.GetLink(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// HandleDelete removes a link
// DELETE /links/{code}
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	c := chi.URLParam(r, "code")

	removed, err := h.service.DeleteLink(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !removed {
		apperrors.NotFound().WriteJSON(w)
		return
	}

	h.log.Ctx(r.Context()).Info("link deleted", "code", c)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleRedirect resolves a code and redirects to its target
// GET /{code}
func (h *LinkHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	c := chi.URLParam(r, "code")

	// Reserved segments belong to other routes
	if code.Reserved(c) {
		h.HandleNotFound(w, r)
		return
	}

	target, err := h.service.Resolve(r.Context(), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// HandleHealth reports liveness
// GET /healthz
func (h *LinkHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": h.version})
}

// HandleReady reports whether the store answers
// GET /readyz
func (h *LinkHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.log.Ctx(r.Context()).Warn("store ping failed", "error", err.Error())
		apperrors.Unavailable("store unreachable").WriteJSON(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleNotFound is the fallback for unmatched paths
func (h *LinkHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	apperrors.NotFound().WriteJSON(w)
}

// ============ ROUTER SETUP ============

// SetupRoutes configures all HTTP routes. mws wrap every route, outermost
// first; they run inside the chi router so route patterns are visible.
func (h *LinkHandler) SetupRoutes(mws ...middleware.Middleware) http.Handler {
	r := chi.NewRouter()
	for _, mw := range mws {
		r.Use(mw)
	}
	// HEAD falls through to the GET handlers
	r.Use(chimw.GetHead)

	r.Get("/healthz", h.HandleHealth)
	r.Get("/readyz", h.HandleReady)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/links", h.linkRoutes)
	r.Route("/api/links", h.linkRoutes)

	r.Get("/{code}", h.HandleRedirect)
	r.NotFound(h.HandleNotFound)

	return r
}

func (h *LinkHandler) linkRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{code}", h.HandleGet)
	r.Delete("/{code}", h.HandleDelete)
}

// ============ HELPERS ============

// writeError maps service errors to API errors. Anything unexpected is
// logged and reported as a 500.
func (h *LinkHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		apperrors.InvalidURL(err.Error()).WriteJSON(w)
	case errors.Is(err, service.ErrInvalidCode):
		apperrors.InvalidCode().WriteJSON(w)
	case errors.Is(err, service.ErrCodeConflict):
		apperrors.CodeExists().WriteJSON(w)
	case errors.Is(err, service.ErrNotFound):
		apperrors.NotFound().WriteJSON(w)
	case errors.Is(err, service.ErrAllocationExhausted):
		h.log.Ctx(r.Context()).Error("code allocation exhausted", "error", err.Error())
		apperrors.AllocationExhausted().WriteJSON(w)
	case errors.Is(err, context.Canceled):
		h.log.Ctx(r.Context()).Info("request canceled", "path", r.URL.Path)
		apperrors.Canceled().WriteJSON(w)
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Ctx(r.Context()).Warn("store call timed out", "path", r.URL.Path, "error", err.Error())
		apperrors.Unavailable("request timed out").WriteJSON(w)
	default:
		h.log.Ctx(r.Context()).Error("store error", "path", r.URL.Path, "error", err.Error())
		apperrors.Internal().WriteJSON(w)
	}
}

// requestBaseURL rebuilds scheme://host from the incoming request
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

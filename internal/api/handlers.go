package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/reload"
)

// ReloadHistory returns recent reload cycles, newest first.
type ReloadHistory interface {
	Recent(limit int) ([]reload.Cycle, error)
}

// Handler holds the page and debug route handlers.
type Handler struct {
	svc     *Service
	history ReloadHistory
}

// NewHandler creates a new Handler. history may be nil.
func NewHandler(svc *Service, history ReloadHistory) *Handler {
	return &Handler{svc: svc, history: history}
}

// Home handles GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.Home(r.Context())
	if err != nil {
		internalError(w, "render home failed", err)
		return
	}
	writeHTML(w, r, http.StatusOK, html)
}

// ListPosts handles GET /posts and GET /get-posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.ListPosts(r.Context())
	if err != nil {
		internalError(w, "list posts failed", err)
		return
	}
	writeHTML(w, r, http.StatusOK, html)
}

// GetPost handles GET /post/{slug}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	hint, html, err := h.svc.GetPost(r.Context(), slug)
	if err != nil {
		internalError(w, "get post failed", err, slog.String("slug", slug))
		return
	}
	if hint == NotFound {
		writeHTML(w, r, http.StatusNotFound, html)
		return
	}
	writeHTML(w, r, http.StatusOK, html)
}

// Reloads handles GET /debug/reloads.
//
//	@Summary		Recent template reload cycles
//	@Tags			debug
//	@Produce		json
//	@Param			limit	query		int		false	"Max cycles"
//	@Success		200		{object}	ReloadListResponse
//	@Failure		404		{object}	errResponse
//	@Router			/debug/reloads [get]
func (h *Handler) Reloads(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody("reload journal disabled"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	cycles, err := h.history.Recent(limit)
	if err != nil {
		slog.Error("list reloads failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ReloadListResponse{Reloads: toReloadEntries(cycles)})
}

// internalError logs err and answers with a generic 500 page.
func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	slog.Error(msg, attrs...)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router with the page routes mounted.
// events, if non-nil, is mounted at GET /events.
// assetsDir, if non-empty, is served under /assets/.
// HEAD is answered by the GET handlers.
func NewRouter(h *Handler, events http.Handler, assetsDir string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.GetHead)

	r.Get("/", h.Home)

	// Listing, under both the page and the fragment path.
	r.Get("/posts", h.ListPosts)
	r.Get("/get-posts", h.ListPosts)

	r.Get("/post/{slug}", h.GetPost)

	if assetsDir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir))))
	}

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	r.Get("/debug/reloads", h.Reloads)

	return r
}

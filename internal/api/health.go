package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/reload"
	"github.com/starford/quire/internal/templates"
)

// TemplateSource exposes the live template set.
type TemplateSource interface {
	Current() *templates.Set
}

// ReloadStatus reports where the reloader is.
type ReloadStatus interface {
	State() reload.State
	Cycles() int64
}

type readyResponse struct {
	Status    string    `json:"status"`
	Templates int       `json:"templates"`
	BuiltAt   time.Time `json:"built_at"`
	Reloads   int64     `json:"reloads"`
}

// NewHealthRouter serves /live and /ready. Ready answers 503 while a
// rebuild is in progress and otherwise describes the template set in use.
func NewHealthRouter(views TemplateSource, status ReloadStatus) chi.Router {
	r := chi.NewRouter()

	r.Get("/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		set := views.Current()
		resp := readyResponse{
			Status:    "ok",
			Templates: len(set.Files()),
			BuiltAt:   set.BuiltAt().UTC(),
			Reloads:   status.Cycles(),
		}
		code := http.StatusOK
		if status.State() == reload.StateRebuilding {
			resp.Status = "reloading"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})

	return r
}

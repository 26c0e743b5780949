package api

import (
	"time"

	"github.com/starford/quire/internal/reload"
)

// ReloadEntry is one reload cycle in the debug listing.
type ReloadEntry struct {
	Seq        int64     `json:"seq" example:"12" validate:"required"`
	StartedAt  time.Time `json:"started_at" validate:"required"`
	DurationMS int64     `json:"duration_ms" example:"8"`
	Templates  int       `json:"templates" example:"5"`
	OK         bool      `json:"ok"`
	AssetError string    `json:"asset_error,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ReloadListResponse wraps the recent reload cycles, newest first.
type ReloadListResponse struct {
	Reloads []ReloadEntry `json:"reloads" validate:"required"`
}

func toReloadEntries(cycles []reload.Cycle) []ReloadEntry {
	out := make([]ReloadEntry, len(cycles))
	for i, c := range cycles {
		out[i] = ReloadEntry{
			Seq:        c.Seq,
			StartedAt:  c.StartedAt,
			DurationMS: c.Duration.Milliseconds(),
			Templates:  c.Templates,
			OK:         c.OK(),
			AssetError: c.AssetError,
			Error:      c.Error,
		}
	}
	return out
}

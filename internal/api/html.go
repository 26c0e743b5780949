package api

import (
	"net/http"
	"strings"

	"github.com/starford/quire/internal/checksum"
)

// writeHTML writes a rendered page with a content ETag. A request whose
// If-None-Match lists that ETag gets 304 with no body.
func writeHTML(w http.ResponseWriter, r *http.Request, status int, body string) {
	etag := checksum.ETag([]byte(body))
	w.Header().Set("ETag", etag)
	if status == http.StatusOK && etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(body))
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

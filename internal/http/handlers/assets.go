package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
)

var assetContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".pcm":  "audio/L16;codec=pcm;rate=24000",
}

// Asset serves a stored generation output. Keys are relative paths under the
// blob root; a released or unknown key is a 404.
func (a *App) Asset(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		a.error(w, http.StatusNotFound, "not_found", "asset key required")
		return
	}
	data, err := a.Blobs.Read(r.Context(), key)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}
	contentType := assetContentTypes[path.Ext(key)]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/store"
)

const (
	// MaxUploadBytes caps a single media upload.
	MaxUploadBytes = 10 << 20
	keyPrefix      = "posts/"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
}

// FileStore defines the interface for media object storage.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*store.MediaObject, error)
	Remove(ctx context.Context, key string) error
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler serves images referenced from post markdown.
type Handler struct {
	files FileStore
}

func NewHandler(files FileStore) *Handler {
	return &Handler{files: files}
}

// Upload stores the request body under /media/{name}. The content type is
// sniffed from the bytes, not taken from the request.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !namePattern.MatchString(name) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid media name"})
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty upload"})
		return
	}

	mt := mimetype.Detect(data)
	if !allowedTypes[mt.String()] {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "unsupported media type " + mt.String()})
		return
	}

	if err := h.files.Put(r.Context(), keyPrefix+name, bytes.NewReader(data), int64(len(data)), mt.String()); err != nil {
		logger.FromContext(r.Context()).Error("Media upload failed", "name", name, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upload failed"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"url":          "/media/" + name,
		"content_type": mt.String(),
		"size":         len(data),
	})
}

// Download streams a stored media object.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !namePattern.MatchString(name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	obj, err := h.files.Get(r.Context(), keyPrefix+name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		logger.FromContext(r.Context()).Error("Media download failed", "name", name, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "download failed"})
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, obj.Body); err != nil {
		logger.FromContext(r.Context()).Warn("Media stream interrupted", "name", name, "error", err)
	}
}

// Delete removes a stored media object.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !namePattern.MatchString(name) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid media name"})
		return
	}
	if err := h.files.Remove(r.Context(), keyPrefix+name); err != nil {
		logger.FromContext(r.Context()).Error("Media delete failed", "name", name, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "delete failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/models"
	"github.com/Frans06/website/internal/store"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the storage error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, store.ErrInvalidPost):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
	case errors.Is(err, store.ErrConstraintViolation):
		msg := "post conflicts with existing data"
		var se *store.Error
		if errors.As(err, &se) && se.Constraint == "posts_slug_key" {
			msg = "slug is already taken"
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": msg})
	case errors.Is(err, store.ErrConnectionUnavailable):
		log.Warn("Storage unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable"})
	default:
		log.Error("Storage query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
	}
}

// Handler holds the post HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns published post summaries filtered by ?category= and ?q=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	published := true
	filter := models.PostFilter{
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		SearchTerm: strings.TrimSpace(r.URL.Query().Get("q")),
		Published:  &published,
	}
	posts, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get returns a single published post with its rendered body.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !post.Published {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type createPostRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Slug      string  `json:"slug"`
	Excerpt   *string `json:"excerpt"`
	Category  string  `json:"category"`
	Published bool    `json:"published"`
}

// Create stores a post authored by the session's user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	post, err := h.svc.Create(r.Context(), models.NewPost{
		Title:     req.Title,
		Content:   req.Content,
		UserID:    userID,
		Slug:      strings.TrimSpace(req.Slug),
		Excerpt:   req.Excerpt,
		Category:  strings.TrimSpace(req.Category),
		Published: req.Published,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

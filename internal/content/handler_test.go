package content_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/content"
	"github.com/Frans06/website/internal/models"
	"github.com/Frans06/website/internal/store"
)

func newRouter(repo *fakeRepo, author uuid.UUID) http.Handler {
	h := content.NewHandler(content.NewService(repo, content.NewMarkdownRenderer()))
	r := chi.NewRouter()
	r.Get("/api/posts", h.List)
	r.Get("/api/posts/{slug}", h.Get)
	r.With(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if author != uuid.Nil {
				r = r.WithContext(auth.ContextWithUserID(r.Context(), author))
			}
			next.ServeHTTP(w, r)
		})
	}).Post("/api/posts", h.Create)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandler_List(t *testing.T) {
	t.Run("Should list only published posts with query filters", func(t *testing.T) {
		repo := &fakeRepo{posts: []models.Post{samplePost("visible", true), samplePost("draft", false)}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/posts?category=Rust&q=+async+", nil)

		newRouter(repo, uuid.Nil).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var got []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "visible", got[0]["slug"])
		assert.Equal(t, "2024-12-15", got[0]["date"])
		assert.NotContains(t, got[0], "published")

		assert.Equal(t, "Rust", repo.lastFilter.Category)
		assert.Equal(t, "async", repo.lastFilter.SearchTerm)
		require.NotNil(t, repo.lastFilter.Published)
		assert.True(t, *repo.lastFilter.Published)
	})

	t.Run("Should answer 503 when the pool is exhausted", func(t *testing.T) {
		repo := &fakeRepo{err: &store.Error{Op: "list posts", Kind: store.ErrConnectionUnavailable}}
		rec := httptest.NewRecorder()
		newRouter(repo, uuid.Nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "temporarily unavailable", decodeError(t, rec))
	})

	t.Run("Should answer 500 for query failures", func(t *testing.T) {
		repo := &fakeRepo{err: &store.Error{Op: "list posts", Kind: store.ErrQueryFailed}}
		rec := httptest.NewRecorder()
		newRouter(repo, uuid.Nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandler_Get(t *testing.T) {
	repo := &fakeRepo{posts: []models.Post{samplePost("visible", true), samplePost("draft", false)}}
	router := newRouter(repo, uuid.Nil)

	t.Run("Should return the rendered post", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/visible", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "visible", got["slug"])
		assert.Equal(t, "1 min read", got["read_time"])
		assert.Contains(t, got["content_html"], "<em>body</em>")
	})

	t.Run("Should hide unpublished posts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/draft", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should answer 404 for unknown slugs", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/nonexistent", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "post not found", decodeError(t, rec))
	})
}

func TestHandler_Create(t *testing.T) {
	author := uuid.New()

	t.Run("Should create a post owned by the session user", func(t *testing.T) {
		repo := &fakeRepo{}
		rec := httptest.NewRecorder()
		body := `{"title":"Hello World","content":"hi","category":"Rust","published":true,"user_id":"` + uuid.NewString() + `"}`
		newRouter(repo, author).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, repo.created)
		assert.Equal(t, author, repo.created.UserID)
		assert.Equal(t, "Rust", repo.created.Category)
		assert.True(t, repo.created.Published)
	})

	t.Run("Should require a session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&fakeRepo{}, uuid.Nil).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"x"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should reject malformed bodies", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(&fakeRepo{}, author).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should answer 400 for invalid posts", func(t *testing.T) {
		repo := &fakeRepo{err: store.ErrInvalidPost}
		rec := httptest.NewRecorder()
		newRouter(repo, author).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":""}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should answer 409 for a taken slug", func(t *testing.T) {
		repo := &fakeRepo{err: &store.Error{
			Op:         "create post",
			Kind:       store.ErrConstraintViolation,
			Constraint: "posts_slug_key",
			Err:        &pgconn.PgError{Code: store.UniqueViolationCode},
		}}
		rec := httptest.NewRecorder()
		newRouter(repo, author).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"Hello World"}`)))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "slug is already taken", decodeError(t, rec))
	})
}

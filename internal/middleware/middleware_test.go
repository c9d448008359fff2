package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/middleware"
)

func TestRequireAuth(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	sessions := auth.NewSessionStore(rdb)

	var seen uuid.UUID
	protected := middleware.RequireAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("Should inject the session user", func(t *testing.T) {
		userID := uuid.New()
		sid, err := sessions.Create(context.Background(), userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sid})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("Should answer 401 without a cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should answer 401 for an unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: uuid.NewString()})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestLogger(t *testing.T) {
	t.Run("Should log one access line and expose the logger to handlers", func(t *testing.T) {
		var buf bytes.Buffer
		base := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf, JSON: true})

		r := chi.NewRouter()
		r.Use(chimw.RequestID)
		r.Use(middleware.RequestLogger(base))
		r.Get("/api/posts/{slug}", func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Info("inside handler")
			w.WriteHeader(http.StatusNotFound)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil))

		out := buf.String()
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, out, `"msg":"inside handler"`)
		assert.Contains(t, out, `"msg":"HTTP request"`)
		assert.Contains(t, out, `"status":404`)
		assert.Contains(t, out, `"path":"/api/posts/missing"`)
		assert.Contains(t, out, `"request_id"`)
	})
}

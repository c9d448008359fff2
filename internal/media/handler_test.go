package media_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frans06/website/internal/media"
	"github.com/Frans06/website/internal/store"
)

type storedObject struct {
	data        []byte
	contentType string
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string]storedObject
	putErr  error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: map[string]storedObject{}}
}

func (f *fakeFiles) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = storedObject{data: data, contentType: contentType}
	return nil
}

func (f *fakeFiles) Get(_ context.Context, key string) (*store.MediaObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, &store.Error{Op: "get media", Kind: store.ErrNotFound}
	}
	return &store.MediaObject{
		Key:         key,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func newRouter(files media.FileStore) http.Handler {
	h := media.NewHandler(files)
	r := chi.NewRouter()
	r.Put("/api/media/{name}", h.Upload)
	r.Delete("/api/media/{name}", h.Delete)
	r.Get("/media/{name}", h.Download)
	return r
}

func TestHandler_Upload(t *testing.T) {
	t.Run("Should store a sniffed image and serve it back", func(t *testing.T) {
		files := newFakeFiles()
		router := newRouter(files)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/media/diagram.png", bytes.NewReader(pngBytes))
		req.Header.Set("Content-Type", "text/html")
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "/media/diagram.png", body["url"])
		assert.Equal(t, "image/png", body["content_type"])
		assert.Equal(t, "image/png", files.objects["posts/diagram.png"].contentType)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/diagram.png", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, pngBytes, rec.Body.Bytes())
	})

	t.Run("Should reject non-image content", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(newFakeFiles()).ServeHTTP(rec,
			httptest.NewRequest(http.MethodPut, "/api/media/page.png", strings.NewReader("<html><script>x</script></html>")))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("Should reject unsafe names and empty bodies", func(t *testing.T) {
		router := newRouter(newFakeFiles())

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/media/.hidden", bytes.NewReader(pngBytes)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/media/empty.png", bytes.NewReader(nil)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject oversized uploads", func(t *testing.T) {
		big := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{1}, media.MaxUploadBytes)...)
		rec := httptest.NewRecorder()
		newRouter(newFakeFiles()).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/media/big.png", bytes.NewReader(big)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("Should answer 502 when object storage fails", func(t *testing.T) {
		files := newFakeFiles()
		files.putErr = errors.New("minio down")
		rec := httptest.NewRecorder()
		newRouter(files).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/media/a.png", bytes.NewReader(pngBytes)))
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandler_DownloadAndDelete(t *testing.T) {
	t.Run("Should answer 404 for missing media", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(newFakeFiles()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/nope.png", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should delete stored media", func(t *testing.T) {
		files := newFakeFiles()
		files.objects["posts/old.png"] = storedObject{data: pngBytes, contentType: "image/png"}
		router := newRouter(files)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/media/old.png", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/old.png", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

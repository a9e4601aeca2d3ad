package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/kb-ui-api/internal/domain/model"
	"github.com/target/kb-ui-api/internal/ports"
	"github.com/target/kb-ui-api/internal/service"
)

// memObjectStore is an in-memory ports.ObjectStore for handler tests.
type memObjectStore struct {
	objects  map[string][]byte
	failWith error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) List(_ context.Context, prefix string) ([]model.FileObject, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []model.FileObject
	for key, data := range s.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, model.FileObject{
				Key:          key,
				Size:         int64(len(data)),
				LastModified: time.Now(),
			})
		}
	}
	return out, nil
}

func (s *memObjectStore) Put(_ context.Context, in ports.PutObjectInput) (model.FileObject, error) {
	if s.failWith != nil {
		return model.FileObject{}, s.failWith
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return model.FileObject{}, err
	}
	s.objects[in.Key] = data
	return model.FileObject{
		Key:          in.Key,
		Size:         int64(len(data)),
		ContentType:  in.ContentType,
		LastModified: time.Now(),
	}, nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if s.failWith != nil {
		return "", s.failWith
	}
	return fmt.Sprintf("https://storage.example.com/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func newFileHandlersFixture(t *testing.T) (*FileHandlers, *memObjectStore) {
	t.Helper()
	store := newMemObjectStore()
	svc := service.NewFileService(service.FileServiceOptions{Store: store})
	return &FileHandlers{Svc: svc}, store
}

func multipartUpload(t *testing.T, key, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if key != "" {
		require.NoError(t, mw.WriteField("key", key))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestFileHandlers_List(t *testing.T) {
	h, store := newFileHandlersFixture(t)
	store.objects["docs/a.pdf"] = []byte("pdf")
	store.objects["images/logo.png"] = []byte("png")

	req := httptest.NewRequest(http.MethodGet, "/api/files?prefix=docs/", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "docs/a.pdf")
	assert.NotContains(t, body, "images/logo.png")
}

func TestFileHandlers_List_StoreError(t *testing.T) {
	h, store := newFileHandlersFixture(t)
	store.failWith = errors.New("bucket unreachable")

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "list_failed")
}

func TestFileHandlers_Upload(t *testing.T) {
	h, store := newFileHandlersFixture(t)

	body, contentType := multipartUpload(t, "docs/report.pdf", "report.pdf", "pdf content")
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "docs/report.pdf")
	assert.Equal(t, []byte("pdf content"), store.objects["docs/report.pdf"])
}

func TestFileHandlers_Upload_DefaultsKeyToFilename(t *testing.T) {
	h, store := newFileHandlersFixture(t)

	body, contentType := multipartUpload(t, "", "notes.txt", "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, store.objects, "notes.txt")
}

func TestFileHandlers_Upload_MissingFile(t *testing.T) {
	h, _ := newFileHandlersFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("key", "docs/a.txt"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	h.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_file")
}

func TestFileHandlers_Upload_TraversalKey(t *testing.T) {
	h, store := newFileHandlersFixture(t)

	body, contentType := multipartUpload(t, "../../etc/passwd", "passwd", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
	assert.Empty(t, store.objects)
}

func TestFileHandlers_Upload_NotMultipart(t *testing.T) {
	h, _ := newFileHandlersFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/files", strings.NewReader("raw bytes"))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()

	h.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_multipart")
}

func TestFileHandlers_DownloadURL(t *testing.T) {
	h, store := newFileHandlersFixture(t)
	store.objects["docs/a.pdf"] = []byte("pdf")

	req := httptest.NewRequest(http.MethodGet, "/api/files/docs/a.pdf", nil)
	req.SetPathValue("key", "docs/a.pdf")
	w := httptest.NewRecorder()

	h.DownloadURL(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://storage.example.com/docs/a.pdf")
}

func TestFileHandlers_DownloadURL_MissingKey(t *testing.T) {
	h, _ := newFileHandlersFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/files/", nil)
	w := httptest.NewRecorder()

	h.DownloadURL(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestFileHandlers_Delete(t *testing.T) {
	h, store := newFileHandlersFixture(t)
	store.objects["docs/a.pdf"] = []byte("pdf")

	req := httptest.NewRequest(http.MethodDelete, "/api/files/docs/a.pdf", nil)
	req.SetPathValue("key", "docs/a.pdf")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.objects)
}

func TestFileHandlers_Delete_StoreError(t *testing.T) {
	h, store := newFileHandlersFixture(t)
	store.objects["docs/a.pdf"] = []byte("pdf")
	store.failWith = errors.New("bucket unreachable")

	req := httptest.NewRequest(http.MethodDelete, "/api/files/docs/a.pdf", nil)
	req.SetPathValue("key", "docs/a.pdf")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "delete_failed")
}

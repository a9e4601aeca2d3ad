package httpx

import (
	"errors"
	"net/http"

	"github.com/target/kb-ui-api/internal/ports"
	"github.com/target/kb-ui-api/internal/service"
)

// FileHandlers provides HTTP handlers for the attachment browser.
type FileHandlers struct {
	Svc *service.FileService
}

// maxUploadBytes caps multipart uploads; anything bigger belongs in a
// dedicated pipeline, not the browser-facing API.
const maxUploadBytes = 32 << 20

// List handles HTTP requests to list stored objects under a prefix.
func (h *FileHandlers) List(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	files, err := h.Svc.List(r.Context(), prefix)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"files":  files,
		"prefix": prefix,
	})
}

// Upload handles multipart uploads. The object key defaults to the uploaded
// filename and can be overridden with the "key" form field.
func (h *FileHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_multipart", Err: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_file",
			Err:     errors.New("multipart field 'file' is required"),
		})
		return
	}
	defer file.Close()

	key := r.FormValue("key")
	if key == "" {
		key = header.Filename
	}

	obj, err := h.Svc.Upload(r.Context(), ports.PutObjectInput{
		Key:         key,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		if isValidationError(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "upload_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusCreated, obj)
}

// DownloadURL handles HTTP requests for a time-limited download link.
// The object key is the remainder of the request path.
func (h *FileHandlers) DownloadURL(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	url, err := h.Svc.DownloadURL(r.Context(), key)
	if err != nil {
		if isValidationError(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "presign_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Delete handles HTTP requests to remove a stored object.
func (h *FileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.Svc.Delete(r.Context(), key); err != nil {
		if isValidationError(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "delete_failed", Err: err})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

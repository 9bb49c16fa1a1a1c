package backendhttp

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// putBlob принимает сырые байты части по "presigned" URL и отвечает ETag в
// стиле S3 — MD5 содержимого в кавычках.
func (a *Server) putBlob(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	part, err := strconv.Atoi(chi.URLParam(r, "part"))
	if err != nil || part < 1 {
		http.NotFound(w, r)
		return
	}

	a.mu.Lock()
	m, err := a.readMeta(fileID)
	a.mu.Unlock()
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if m.Status != uploadapi.StatusUploading {
		httperrors.Write(w, models.ErrNotActive)
		return
	}
	if part > m.TotalParts {
		httperrors.Write(w, models.ErrPartOutOfRange)
		return
	}

	path := a.partPath(fileID, part)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := os.Create(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(io.MultiWriter(f, h), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if r.ContentLength > 0 && n != r.ContentLength {
		httperrors.Write(w, fmt.Errorf("size mismatch: want %d, got %d", r.ContentLength, n))
		return
	}

	etag := `"` + hex.EncodeToString(h.Sum(nil)) + `"`

	a.mu.Lock()
	m, err = a.readMeta(fileID)
	if err == nil {
		m.Blobs[part] = etag
		err = a.writeMeta(m)
	}
	a.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
}

package backendhttp

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// abort прерывает загрузку: помечает её failed и удаляет принятые части.
func (a *Server) abort(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := a.readMeta(fileID)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	if m.Status != uploadapi.StatusUploading {
		httperrors.Write(w, models.ErrNotActive)
		return
	}

	m.Status = uploadapi.StatusFailed
	if err := a.writeMeta(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = os.RemoveAll(filepath.Join(a.uploadDir(fileID), partsDirName))

	w.WriteHeader(http.StatusNoContent)
}

package backendhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// partUploaded фиксирует часть, подтверждённую клиентом после успешного PUT.
func (a *Server) partUploaded(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req uploadapi.PartRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, err)
		return
	}
	if req.ETag == "" {
		httperrors.Write(w, fmt.Errorf("etag is required"))
		return
	}

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
	if req.PartNumber < 1 || req.PartNumber > m.TotalParts {
		httperrors.Write(w, models.ErrPartOutOfRange)
		return
	}

	// Повторный ack той же части просто перезаписывает ETag.
	m.Parts[req.PartNumber] = req.ETag
	if err := a.writeMeta(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadapi.PartUploadedResponse{
		UploadedParts: len(m.Parts),
		TotalParts:    m.TotalParts,
	})
}

// uploadStatus отдаёт статус загрузки и список подтверждённых частей.
func (a *Server) uploadStatus(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	a.mu.Lock()
	m, err := a.readMeta(fileID)
	a.mu.Unlock()
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadapi.UploadStatusResponse{
		Status:        m.Status,
		UploadedParts: m.ackedParts(),
	})
}

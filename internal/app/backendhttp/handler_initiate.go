package backendhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// initiate создаёт multipart-загрузку либо возвращает параметры незавершённой
// загрузки с тем же fingerprint вместе со списком уже принятых частей.
func (a *Server) initiate(w http.ResponseWriter, r *http.Request) {
	var req uploadapi.InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, err)
		return
	}
	if req.Filename == "" {
		httperrors.Write(w, fmt.Errorf("filename is required"))
		return
	}
	if req.Size < 0 {
		httperrors.Write(w, fmt.Errorf("size is required"))
		return
	}
	if req.Fingerprint == "" {
		httperrors.Write(w, fmt.Errorf("fingerprint is required"))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Дедупликация: та же незавершённая загрузка продолжается с места обрыва.
	if m := a.findByFingerprint(req.Fingerprint); m != nil {
		writeJSON(w, http.StatusCreated, uploadapi.InitiateResponse{
			FileID:        m.FileID,
			UploadID:      m.UploadID,
			PartSize:      m.PartSize,
			TotalParts:    m.TotalParts,
			UploadedParts: m.ackedParts(),
		})
		return
	}

	totalParts := 0
	if req.Size > 0 {
		totalParts = int((req.Size + a.partSize - 1) / a.partSize)
	}

	m := &uploadMeta{
		FileID:      uuid.NewString(),
		UploadID:    uuid.NewString(),
		Name:        req.Filename,
		Size:        req.Size,
		Mime:        req.MimeType,
		FolderID:    req.FolderID,
		Fingerprint: req.Fingerprint,
		PartSize:    a.partSize,
		TotalParts:  totalParts,
		Status:      uploadapi.StatusUploading,
		Parts:       map[int]string{},
		Blobs:       map[int]string{},
	}
	if err := a.writeMeta(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, uploadapi.InitiateResponse{
		FileID:     m.FileID,
		UploadID:   m.UploadID,
		PartSize:   m.PartSize,
		TotalParts: m.TotalParts,
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

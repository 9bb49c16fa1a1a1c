package backendhttp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

const presignExpirySeconds = 3600

// presignPart выдаёт URL для прямой заливки части. Dev-сервер принимает байты
// сам, поэтому "presigned" URL указывает на его же блоб-эндпоинт.
func (a *Server) presignPart(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	part, err := strconv.Atoi(r.URL.Query().Get("part_number"))
	if err != nil {
		httperrors.Write(w, fmt.Errorf("invalid part_number: %w", err))
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
	if part < 1 || part > m.TotalParts {
		httperrors.Write(w, models.ErrPartOutOfRange)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	writeJSON(w, http.StatusOK, uploadapi.PresignedURLResponse{
		URL:        fmt.Sprintf("%s://%s/blob/%s/%d", scheme, r.Host, m.FileID, part),
		PartNumber: part,
		ExpiresIn:  presignExpirySeconds,
	})
}

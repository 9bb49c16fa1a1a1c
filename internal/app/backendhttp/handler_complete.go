package backendhttp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/httperrors"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// complete сверяет заявленные части с фактически принятыми, склеивает файл
// и закрывает загрузку.
func (a *Server) complete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	var req uploadapi.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.Write(w, err)
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

	if err := a.verifyParts(m, req.Parts); err != nil {
		httperrors.Write(w, err)
		return
	}

	if err := a.assemble(m, req.Parts); err != nil {
		m.Status = uploadapi.StatusFailed
		_ = a.writeMeta(m)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.Status = uploadapi.StatusCompleted
	if err := a.writeMeta(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, uploadapi.FileRecord{
		ID:       m.FileID,
		Name:     m.Name,
		Size:     m.Size,
		Mime:     m.Mime,
		Status:   m.Status,
		FolderID: m.FolderID,
	})
}

// verifyParts проверяет полноту списка и совпадение ETag с принятыми блобами.
func (a *Server) verifyParts(m *uploadMeta, parts []uploadapi.PartRef) error {
	if len(parts) != m.TotalParts {
		return fmt.Errorf("missing part: got %d of %d", len(parts), m.TotalParts)
	}
	for _, ref := range parts {
		if ref.PartNumber < 1 || ref.PartNumber > m.TotalParts {
			return models.ErrPartOutOfRange
		}
		blobETag, ok := m.Blobs[ref.PartNumber]
		if !ok {
			return fmt.Errorf("missing part %d", ref.PartNumber)
		}
		if blobETag != ref.ETag {
			return fmt.Errorf("part %d etag mismatch", ref.PartNumber)
		}
	}
	return nil
}

// assemble склеивает части в итоговый файл в порядке возрастания номеров.
func (a *Server) assemble(m *uploadMeta, parts []uploadapi.PartRef) error {
	ordered := append([]uploadapi.PartRef{}, parts...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].PartNumber < ordered[j].PartNumber })

	out, err := os.Create(filepath.Join(a.uploadDir(m.FileID), contentFileName))
	if err != nil {
		return err
	}
	defer out.Close()

	for _, ref := range ordered {
		f, err := os.Open(a.partPath(m.FileID, ref.PartNumber))
		if err != nil {
			return err
		}
		_, err = io.Copy(out, f)
		f.Close()
		if err != nil {
			return err
		}
	}

	// Части больше не нужны: содержимое лежит в итоговом файле.
	return os.RemoveAll(filepath.Join(a.uploadDir(m.FileID), partsDirName))
}

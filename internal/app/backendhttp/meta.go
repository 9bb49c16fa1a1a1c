package backendhttp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

const (
	metaFileName       = "meta.json"
	contentFileName    = "content.bin"
	partsDirName       = "parts"
	partFilenameFormat = "%d.part"
)

// uploadMeta хранится на диске и описывает одну multipart-загрузку.
// Parts — части, подтверждённые клиентом через part-uploaded; Blobs — части,
// фактически принятые блоб-эндпоинтом, с их настоящими ETag.
type uploadMeta struct {
	FileID      string         `json:"file_id"`
	UploadID    string         `json:"upload_id"`
	Name        string         `json:"name"`
	Size        int64          `json:"size"`
	Mime        string         `json:"mime,omitempty"`
	FolderID    string         `json:"folder_id,omitempty"`
	Fingerprint string         `json:"fingerprint"`
	PartSize    int64          `json:"part_size"`
	TotalParts  int            `json:"total_parts"`
	Status      string         `json:"status"`
	Parts       map[int]string `json:"parts"`
	Blobs       map[int]string `json:"blobs"`
}

// ackedParts возвращает подтверждённые части, упорядоченные по номеру.
func (m *uploadMeta) ackedParts() []uploadapi.PartRef {
	refs := make([]uploadapi.PartRef, 0, len(m.Parts))
	for n := 1; n <= m.TotalParts; n++ {
		if etag, ok := m.Parts[n]; ok {
			refs = append(refs, uploadapi.PartRef{PartNumber: n, ETag: etag})
		}
	}
	return refs
}

func (a *Server) uploadDir(fileID string) string {
	return filepath.Join(a.dataDir, filepath.Base(fileID))
}

func (a *Server) metaPath(fileID string) string {
	return filepath.Join(a.uploadDir(fileID), metaFileName)
}

func (a *Server) partPath(fileID string, part int) string {
	return filepath.Join(a.uploadDir(fileID), partsDirName, fmt.Sprintf(partFilenameFormat, part))
}

// readMeta читает метаданные загрузки; отсутствие каталога — ErrNotFound.
func (a *Server) readMeta(fileID string) (*uploadMeta, error) {
	b, err := os.ReadFile(a.metaPath(fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	return decodeMeta(b)
}

func decodeMeta(b []byte) (*uploadMeta, error) {
	var m uploadMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m.Parts == nil {
		m.Parts = map[int]string{}
	}
	if m.Blobs == nil {
		m.Blobs = map[int]string{}
	}
	return &m, nil
}

// writeMeta сохраняет метаданные на диск в удобочитаемом виде.
func (a *Server) writeMeta(m *uploadMeta) error {
	if err := os.MkdirAll(a.uploadDir(m.FileID), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.metaPath(m.FileID), b, 0o644)
}

// findByFingerprint ищет незавершённую загрузку с тем же отпечатком — это
// путь дедупликации/возобновления на initiate.
func (a *Server) findByFingerprint(fingerprint string) *uploadMeta {
	entries, err := os.ReadDir(a.dataDir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := a.readMeta(e.Name())
		if err != nil {
			continue
		}
		if m.Fingerprint == fingerprint && m.Status == uploadapi.StatusUploading {
			return m
		}
	}
	return nil
}

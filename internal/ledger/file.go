// Package ledger хранит локальные записи о незавершённых загрузках. Запись
// создаётся на initiate, обновляется после каждой части и удаляется при
// завершении, отмене или реконсиляции. Ошибки ввода-вывода не фатальны:
// персистентность нужна только для возобновления после рестарта, поэтому
// они логируются и глотаются.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	recordPrefix = "upload-"
	recordSuffix = ".json"
)

// FileStore держит по одному JSON-файлу на fileID в каталоге dir.
type FileStore struct {
	dir string
	log *zap.Logger
}

// NewFileStore создаёт стор поверх каталога. Каталог создаётся лениво при
// первой записи.
func NewFileStore(dir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{dir: dir, log: log}
}

// Save записывает (или перезаписывает) запись целиком.
func (s *FileStore) Save(rec models.UploadRecord) {
	if strings.TrimSpace(rec.FileID) == "" {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("ledger: create dir", zap.String("dir", s.dir), zap.Error(err))
		return
	}

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		s.log.Warn("ledger: marshal record", zap.String("file_id", rec.FileID), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path(rec.FileID), b, 0o644); err != nil {
		s.log.Warn("ledger: write record", zap.String("file_id", rec.FileID), zap.Error(err))
	}
}

// Load возвращает запись по fileID; ok == false, если записи нет или она битая.
func (s *FileStore) Load(fileID string) (models.UploadRecord, bool) {
	b, err := os.ReadFile(s.path(fileID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("ledger: read record", zap.String("file_id", fileID), zap.Error(err))
		}
		return models.UploadRecord{}, false
	}

	var rec models.UploadRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		s.log.Warn("ledger: corrupt record", zap.String("file_id", fileID), zap.Error(err))
		return models.UploadRecord{}, false
	}
	return rec, true
}

// UpdateParts заменяет список подтверждённых частей существующей записи.
func (s *FileStore) UpdateParts(fileID string, parts []models.CompletedPart) {
	rec, ok := s.Load(fileID)
	if !ok {
		return
	}
	rec.CompletedParts = append([]models.CompletedPart{}, parts...)
	rec.UpdatedAt = time.Now()
	s.Save(rec)
}

// Clear удаляет запись; отсутствие файла не считается ошибкой.
func (s *FileStore) Clear(fileID string) {
	if err := os.Remove(s.path(fileID)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("ledger: remove record", zap.String("file_id", fileID), zap.Error(err))
	}
}

// All возвращает все читаемые записи. Битые файлы пропускаются.
func (s *FileStore) All() []models.UploadRecord {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("ledger: read dir", zap.String("dir", s.dir), zap.Error(err))
		}
		return nil
	}

	var out []models.UploadRecord
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}
		fileID := strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix)
		if rec, ok := s.Load(fileID); ok {
			out = append(out, rec)
		}
	}
	return out
}

// path строит путь к файлу записи; fileID пропускается через Base против
// выхода за пределы каталога.
func (s *FileStore) path(fileID string) string {
	return filepath.Join(s.dir, recordPrefix+filepath.Base(fileID)+recordSuffix)
}

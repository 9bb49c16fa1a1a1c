package ledger

import (
	"sync"

	"github.com/yourname/upload_lite/internal/models"
)

// MemoryStore хранит записи только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.UploadRecord
}

// NewMemoryStore создаёт пустой in-memory стор.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]models.UploadRecord{}}
}

func (s *MemoryStore) Save(rec models.UploadRecord) {
	if rec.FileID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.FileID] = rec.Clone()
}

func (s *MemoryStore) Load(fileID string) (models.UploadRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fileID]
	if !ok {
		return models.UploadRecord{}, false
	}
	return rec.Clone(), true
}

func (s *MemoryStore) UpdateParts(fileID string, parts []models.CompletedPart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[fileID]
	if !ok {
		return
	}
	rec.CompletedParts = append([]models.CompletedPart{}, parts...)
	s.records[fileID] = rec
}

func (s *MemoryStore) Clear(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, fileID)
}

func (s *MemoryStore) All() []models.UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UploadRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	return out
}

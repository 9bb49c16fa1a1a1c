package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), zap.NewNop())
}

func sampleRecord(fileID string) models.UploadRecord {
	return models.UploadRecord{
		FileID:     fileID,
		UploadID:   "up-" + fileID,
		Filename:   "report.bin",
		TotalSize:  100,
		PartSize:   40,
		TotalParts: 3,
		CompletedParts: []models.CompletedPart{
			{PartNumber: 1, ETag: `"aaa"`},
		},
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.Save(sampleRecord("f1"))

	rec, ok := s.Load("f1")
	require.True(t, ok)
	require.Equal(t, "up-f1", rec.UploadID)
	require.Equal(t, int64(100), rec.TotalSize)
	require.Len(t, rec.CompletedParts, 1)
	require.False(t, rec.UpdatedAt.IsZero(), "Save must stamp UpdatedAt")
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Load("nope")
	require.False(t, ok)
}

func TestFileStoreUpdateParts(t *testing.T) {
	s := newTestStore(t)
	s.Save(sampleRecord("f1"))

	parts := []models.CompletedPart{
		{PartNumber: 1, ETag: `"aaa"`},
		{PartNumber: 2, ETag: `"bbb"`},
	}
	s.UpdateParts("f1", parts)

	rec, ok := s.Load("f1")
	require.True(t, ok)
	require.Equal(t, parts, rec.CompletedParts)
}

func TestFileStoreUpdatePartsMissingRecord(t *testing.T) {
	s := newTestStore(t)
	// обновление несуществующей записи не должно создавать файл
	s.UpdateParts("ghost", []models.CompletedPart{{PartNumber: 1, ETag: `"x"`}})
	_, ok := s.Load("ghost")
	require.False(t, ok)
}

func TestFileStoreClear(t *testing.T) {
	s := newTestStore(t)
	s.Save(sampleRecord("f1"))
	s.Clear("f1")

	_, ok := s.Load("f1")
	require.False(t, ok)

	// повторный Clear молча проходит
	s.Clear("f1")
}

func TestFileStoreAllSkipsCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, zap.NewNop())
	s.Save(sampleRecord("good1"))
	s.Save(sampleRecord("good2"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "upload-broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("hi"), 0o644))

	all := s.All()
	require.Len(t, all, 2)
	ids := map[string]bool{}
	for _, rec := range all {
		ids[rec.FileID] = true
	}
	require.True(t, ids["good1"])
	require.True(t, ids["good2"])
}

func TestFileStoreAllEmptyDir(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "never-created"), zap.NewNop())
	require.Nil(t, s.All())
}

func TestFileStorePathTraversalGuard(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir, zap.NewNop())

	rec := sampleRecord("../../escape")
	s.Save(rec)

	// запись остаётся внутри каталога
	_, err := os.Stat(filepath.Join(dir, "upload-escape.json"))
	require.NoError(t, err)
}

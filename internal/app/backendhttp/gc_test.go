package backendhttp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourname/upload_lite/pkg/uploadapi"
)

func writeMetaFixture(t *testing.T, root, fileID, status string, totalParts int, blobs map[int]string, age time.Duration) {
	t.Helper()
	a := &Server{dataDir: root}
	m := &uploadMeta{
		FileID:     fileID,
		UploadID:   "u-" + fileID,
		Name:       fileID + ".bin",
		Size:       10,
		PartSize:   5,
		TotalParts: totalParts,
		Status:     status,
		Parts:      map[int]string{},
		Blobs:      blobs,
	}
	require.NoError(t, a.writeMeta(m))

	if age > 0 {
		old := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(a.metaPath(fileID), old, old))
	}
}

func dirExists(t *testing.T, root, fileID string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, fileID))
	if err == nil {
		return true
	}
	require.True(t, os.IsNotExist(err))
	return false
}

func TestSweepRemovesStaleIncompleteUploads(t *testing.T) {
	root := t.TempDir()
	writeMetaFixture(t, root, "stale", uploadapi.StatusUploading, 2, map[int]string{1: `"a"`}, 2*time.Hour)

	require.NoError(t, sweepOnce(root, time.Hour))
	require.False(t, dirExists(t, root, "stale"))
}

func TestSweepKeepsFreshUploads(t *testing.T) {
	root := t.TempDir()
	writeMetaFixture(t, root, "fresh", uploadapi.StatusUploading, 2, nil, 0)

	require.NoError(t, sweepOnce(root, time.Hour))
	require.True(t, dirExists(t, root, "fresh"))
}

func TestSweepKeepsCompletedUploads(t *testing.T) {
	root := t.TempDir()
	writeMetaFixture(t, root, "done", uploadapi.StatusCompleted, 2, map[int]string{1: `"a"`, 2: `"b"`}, 2*time.Hour)

	require.NoError(t, sweepOnce(root, time.Hour))
	require.True(t, dirExists(t, root, "done"))
}

func TestSweepKeepsStaleButFullyReceivedUploads(t *testing.T) {
	root := t.TempDir()
	// все блобы приняты: клиент мог упасть прямо перед complete, не трогаем
	writeMetaFixture(t, root, "almost", uploadapi.StatusUploading, 2, map[int]string{1: `"a"`, 2: `"b"`}, 2*time.Hour)

	require.NoError(t, sweepOnce(root, time.Hour))
	require.True(t, dirExists(t, root, "almost"))
}

func TestSweepIgnoresForeignDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-meta-here"), 0o755))

	require.NoError(t, sweepOnce(root, time.Hour))
	require.True(t, dirExists(t, root, "no-meta-here"))
}

func TestStartGCStopIsIdempotent(t *testing.T) {
	stop := StartGC(t.TempDir(), time.Hour, time.Minute)
	stop()
	stop()

	// нулевые параметры выключают GC
	stopNoop := StartGC(t.TempDir(), 0, 0)
	stopNoop()
}

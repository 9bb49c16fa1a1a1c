package reconcile

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/ledger"
	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// reconcileFakeAPI отдаёт статус по fileID и считает вызовы.
type reconcileFakeAPI struct {
	mu       sync.Mutex
	statuses map[string]string // fileID -> статус; отсутствие ключа == ошибка статуса

	statusCalls int
	abortCalls  int
	aborted     []string
}

func (f *reconcileFakeAPI) Initiate(ctx context.Context, req uploadapi.InitiateRequest) (uploadapi.InitiateResponse, error) {
	panic("not used by reconciler")
}

func (f *reconcileFakeAPI) PresignPart(ctx context.Context, fileID string, partNumber int) (uploadapi.PresignedURLResponse, error) {
	panic("not used by reconciler")
}

func (f *reconcileFakeAPI) MarkPartUploaded(ctx context.Context, fileID string, part uploadapi.PartRef) error {
	panic("not used by reconciler")
}

func (f *reconcileFakeAPI) Complete(ctx context.Context, fileID string, parts []uploadapi.PartRef) (uploadapi.FileRecord, error) {
	panic("not used by reconciler")
}

func (f *reconcileFakeAPI) Abort(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortCalls++
	f.aborted = append(f.aborted, fileID)
	return nil
}

func (f *reconcileFakeAPI) UploadStatus(ctx context.Context, fileID string) (uploadapi.UploadStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	st, ok := f.statuses[fileID]
	if !ok {
		return uploadapi.UploadStatusResponse{}, models.ErrNotFound
	}
	return uploadapi.UploadStatusResponse{Status: st}, nil
}

func (f *reconcileFakeAPI) abortedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.aborted...)
}

func seedLedger(ids ...string) *ledger.MemoryStore {
	store := ledger.NewMemoryStore()
	for _, id := range ids {
		store.Save(models.UploadRecord{FileID: id, Filename: id + ".bin", TotalSize: 10})
	}
	return store
}

func TestReconcilerAbortsStaleUploading(t *testing.T) {
	api := &reconcileFakeAPI{statuses: map[string]string{"f1": uploadapi.StatusUploading}}
	store := seedLedger("f1")

	New(api, store, zap.NewNop()).Run(context.Background())

	require.Equal(t, []string{"f1"}, api.abortedIDs())
	require.Empty(t, store.All())
}

func TestReconcilerClearsFinishedWithoutAbort(t *testing.T) {
	api := &reconcileFakeAPI{statuses: map[string]string{
		"done":   uploadapi.StatusCompleted,
		"failed": uploadapi.StatusFailed,
		"gone":   uploadapi.StatusDeleted,
	}}
	store := seedLedger("done", "failed", "gone")

	New(api, store, zap.NewNop()).Run(context.Background())

	// завершённые загрузки не прерываются, но записи подчищаются
	require.Empty(t, api.abortedIDs())
	require.Empty(t, store.All())
}

func TestReconcilerDropsOrphanRecord(t *testing.T) {
	api := &reconcileFakeAPI{statuses: map[string]string{}}
	store := seedLedger("orphan")

	New(api, store, zap.NewNop()).Run(context.Background())

	require.Equal(t, []string{"orphan"}, api.abortedIDs())
	require.Empty(t, store.All())
}

func TestReconcilerSecondRunIsNoop(t *testing.T) {
	api := &reconcileFakeAPI{statuses: map[string]string{"f1": uploadapi.StatusUploading}}
	store := seedLedger("f1")

	r := New(api, store, zap.NewNop())
	r.Run(context.Background())
	r.Run(context.Background())

	require.Equal(t, 1, api.statusCalls, "second run over a clean ledger must not hit the network")
	require.Equal(t, 1, api.abortCalls)
}

func TestReconcilerMixedLedger(t *testing.T) {
	api := &reconcileFakeAPI{statuses: map[string]string{
		"stale": uploadapi.StatusUploading,
		"done":  uploadapi.StatusCompleted,
	}}
	store := seedLedger("stale", "done", "orphan")

	New(api, store, zap.NewNop()).Run(context.Background())

	aborted := api.abortedIDs()
	require.Len(t, aborted, 2)
	require.Contains(t, aborted, "stale")
	require.Contains(t, aborted, "orphan")
	require.Empty(t, store.All())
}

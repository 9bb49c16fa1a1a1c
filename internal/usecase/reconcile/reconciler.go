// Package reconcile подчищает хвосты брошенных загрузок при старте приложения.
// Реконсилер никогда не возобновляет загрузку сам: его задача — чтобы ни в
// локальном ledger, ни на бэкенде не копились записи, которые никто не ведёт.
package reconcile

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadapi"
	"github.com/yourname/upload_lite/pkg/uploadclient"
)

const defaultWorkers = 4

// Ledger — читающая сторона локального реестра загрузок.
type Ledger interface {
	All() []models.UploadRecord
	Clear(fileID string)
}

type Reconciler struct {
	API     uploadclient.Client
	Ledger  Ledger
	Log     *zap.Logger
	Workers int

	running atomic.Bool
}

// New создаёт реконсилер с настройками по умолчанию.
func New(api uploadclient.Client, ledger Ledger, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		API:     api,
		Ledger:  ledger,
		Log:     log,
		Workers: defaultWorkers,
	}
}

// Run однократно сверяет локальные записи с бэкендом. Идемпотентен: повторный
// прогон по уже вычищенному ledger не делает сетевых вызовов, а параллельный
// вход во время работы игнорируется.
func (r *Reconciler) Run(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	defer r.running.Store(false)

	records := r.Ledger.All()
	if len(records) == 0 {
		return
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.Workers)
	for _, rec := range records {
		rec := rec
		eg.Go(func() error {
			// сбой одной записи не должен трогать остальные
			r.reconcileOne(egCtx, rec)
			return nil
		})
	}
	_ = eg.Wait()
}

func (r *Reconciler) reconcileOne(ctx context.Context, rec models.UploadRecord) {
	st, err := r.API.UploadStatus(ctx, rec.FileID)
	if err != nil {
		// бэкенд не знает эту загрузку — запись осиротела
		r.Log.Warn("upload status unavailable, dropping record",
			zap.String("file_id", rec.FileID),
			zap.String("filename", rec.Filename),
			zap.Error(err),
		)
		r.bestEffortAbort(ctx, rec.FileID)
		r.Ledger.Clear(rec.FileID)
		return
	}

	switch st.Status {
	case uploadapi.StatusUploading:
		// никто не ведёт эту загрузку в текущем запуске — прерываем на бэкенде
		r.bestEffortAbort(ctx, rec.FileID)
		r.Ledger.Clear(rec.FileID)
		r.Log.Info("aborted stale upload",
			zap.String("file_id", rec.FileID),
			zap.String("filename", rec.Filename),
		)
	default:
		// completed/failed/deleted: локально делать нечего. failed не
		// показываем пользователю, только фиксируем в логе.
		if st.Status == uploadapi.StatusFailed {
			r.Log.Warn("upload finished as failed on backend",
				zap.String("file_id", rec.FileID),
				zap.String("filename", rec.Filename),
			)
		}
		r.Ledger.Clear(rec.FileID)
	}
}

func (r *Reconciler) bestEffortAbort(ctx context.Context, fileID string) {
	if err := r.API.Abort(ctx, fileID); err != nil {
		r.Log.Debug("best-effort abort failed", zap.String("file_id", fileID), zap.Error(err))
	}
}

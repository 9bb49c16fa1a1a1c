package uploadsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

const abortTimeout = 10 * time.Second

// Session ведёт одну загрузку от initiate до complete. Экземпляр одноразовый:
// после completed или error нужна новая сессия.
type Session struct {
	svc  *Service
	src  io.ReaderAt
	info FileInfo

	mu         sync.Mutex
	state      models.UploadState
	fileID     string
	uploadID   string
	partSize   int64
	totalParts int
	parts      []models.CompletedPart
	done       map[int]bool
	doneBytes  int64 // байты подтверждённых частей
	liveBytes  int64 // байты текущей попытки
	peakBytes  int64 // максимум, показанный наблюдателям; прогресс не откатывается
	errMsg     string
	observers  []func(models.ProgressSnapshot)
	paused     bool
	resume     chan struct{}
	abortPart  context.CancelFunc

	quit     chan struct{}
	quitOnce sync.Once
}

// Subscribe регистрирует наблюдателя прогресса. Наблюдатели получают
// неизменяемые снапшоты и не должны блокироваться надолго.
func (sess *Session) Subscribe(fn func(models.ProgressSnapshot)) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.observers = append(sess.observers, fn)
}

// State возвращает текущее состояние сессии.
func (sess *Session) State() models.UploadState {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Run прогоняет загрузку до конца и возвращает финальную запись файла.
// Отмена (Cancel или контекст) возвращает models.ErrAborted — это не ошибка
// загрузки, а намеренное прерывание.
func (sess *Session) Run(ctx context.Context) (uploadapi.FileRecord, error) {
	if sess.cancelled(ctx) {
		return uploadapi.FileRecord{}, sess.aborted()
	}
	sess.setState(models.StateInitiating)

	fp, err := Fingerprint(sess.src, sess.info.Size)
	if err != nil {
		return uploadapi.FileRecord{}, sess.fail(models.StepFingerprint, err)
	}

	init, err := sess.svc.API.Initiate(ctx, uploadapi.InitiateRequest{
		Filename:    sess.info.Name,
		Size:        sess.info.Size,
		Fingerprint: fp,
		MimeType:    sess.info.MimeType,
		FolderID:    sess.info.FolderID,
	})
	if err != nil {
		if sess.cancelled(ctx) {
			return uploadapi.FileRecord{}, sess.aborted()
		}
		return uploadapi.FileRecord{}, sess.fail(models.StepInitiate, err)
	}

	chunks := Plan(sess.info.Size, init.PartSize)
	if len(chunks) != init.TotalParts {
		err := fmt.Errorf("part plan mismatch: server reports %d parts, local plan has %d", init.TotalParts, len(chunks))
		return uploadapi.FileRecord{}, sess.fail(models.StepInitiate, err)
	}

	sess.mu.Lock()
	sess.fileID = init.FileID
	sess.uploadID = init.UploadID
	sess.partSize = init.PartSize
	sess.totalParts = init.TotalParts
	sess.done = make(map[int]bool, init.TotalParts)
	sess.mu.Unlock()

	// Части, уже известные бэкенду по fingerprint: их не загружаем вовсе.
	known := make(map[int]string, len(init.UploadedParts))
	for _, p := range init.UploadedParts {
		known[p.PartNumber] = p.ETag
	}

	sess.svc.Ledger.Save(sess.record())
	sess.setState(models.StateUploading)

	for i := 0; i < len(chunks); {
		ch := chunks[i]

		if err := sess.gate(ctx); err != nil {
			return uploadapi.FileRecord{}, sess.aborted()
		}
		if sess.partDone(ch.Number) {
			i++
			continue
		}

		if etag, ok := known[ch.Number]; ok {
			sess.recordPart(ch.Number, etag, ch.Size)
			i++
			continue
		}

		presign, err := sess.svc.API.PresignPart(ctx, sess.fileID, ch.Number)
		if err != nil {
			if sess.cancelled(ctx) {
				return uploadapi.FileRecord{}, sess.aborted()
			}
			return uploadapi.FileRecord{}, sess.fail(models.StepPresign, err)
		}

		etag, err := sess.putPart(ctx, presign.URL, ch)
		if err != nil {
			if errors.Is(err, models.ErrAborted) {
				if sess.isPaused() {
					// пауза прервала текущую часть; после resume зайдём на неё же
					continue
				}
				return uploadapi.FileRecord{}, sess.aborted()
			}
			return uploadapi.FileRecord{}, sess.fail(models.StepPartUpload, err)
		}

		if err := sess.svc.API.MarkPartUploaded(ctx, sess.fileID, uploadapi.PartRef{PartNumber: ch.Number, ETag: etag}); err != nil {
			if sess.cancelled(ctx) {
				return uploadapi.FileRecord{}, sess.aborted()
			}
			return uploadapi.FileRecord{}, sess.fail(models.StepAck, err)
		}

		sess.recordPart(ch.Number, etag, ch.Size)
		i++
	}

	if err := sess.gate(ctx); err != nil {
		return uploadapi.FileRecord{}, sess.aborted()
	}

	sess.setState(models.StateCompleting)
	file, err := sess.svc.API.Complete(ctx, sess.fileID, sess.partRefs())
	if err != nil {
		if sess.cancelled(ctx) {
			return uploadapi.FileRecord{}, sess.aborted()
		}
		return uploadapi.FileRecord{}, sess.fail(models.StepComplete, err)
	}

	sess.svc.Ledger.Clear(sess.fileID)

	sess.mu.Lock()
	sess.state = models.StateCompleted
	sess.doneBytes = sess.info.Size
	sess.liveBytes = 0
	sess.mu.Unlock()
	sess.emit()

	if d := sess.svc.DismissAfter; d > 0 {
		time.AfterFunc(d, sess.dismiss)
	}

	return file, nil
}

// Pause прерывает текущую часть и останавливает цикл до Resume. Запись в
// ledger сохраняется, уже подтверждённые части не перезагружаются.
func (sess *Session) Pause() {
	sess.mu.Lock()
	if sess.paused || sess.terminalLocked() {
		sess.mu.Unlock()
		return
	}
	sess.paused = true
	sess.resume = make(chan struct{})
	sess.state = models.StatePaused
	abort := sess.abortPart
	sess.mu.Unlock()

	if abort != nil {
		abort()
	}
	sess.emit()
}

// Resume снимает паузу; цикл продолжается с первой неподтверждённой части.
func (sess *Session) Resume() {
	sess.mu.Lock()
	if !sess.paused {
		sess.mu.Unlock()
		return
	}
	sess.paused = false
	sess.state = models.StateUploading
	close(sess.resume)
	sess.mu.Unlock()
	sess.emit()
}

// Cancel отменяет сессию: прерывает текущий запрос, best-effort abort на
// бэкенде, чистит ledger. С точки зрения вызывающего отмена всегда успешна.
func (sess *Session) Cancel() {
	sess.quitOnce.Do(func() {
		close(sess.quit)
	})
	sess.mu.Lock()
	abort := sess.abortPart
	sess.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// gate проверяет отмену и пережидает паузу перед каждой итерацией цикла.
func (sess *Session) gate(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return models.ErrAborted
		case <-sess.quit:
			return models.ErrAborted
		default:
		}

		sess.mu.Lock()
		if !sess.paused {
			sess.mu.Unlock()
			return nil
		}
		resume := sess.resume
		sess.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return models.ErrAborted
		case <-sess.quit:
			return models.ErrAborted
		}
	}
}

// putPart загружает одну часть через транспорт с ретраями. Отдельный контекст
// части позволяет Pause/Cancel оборвать запрос немедленно.
func (sess *Session) putPart(ctx context.Context, url string, ch Chunk) (string, error) {
	partCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess.mu.Lock()
	sess.abortPart = cancel
	sess.mu.Unlock()
	defer func() {
		sess.mu.Lock()
		sess.abortPart = nil
		sess.mu.Unlock()
	}()

	open := func() (io.Reader, error) {
		sess.mu.Lock()
		sess.liveBytes = 0
		sess.mu.Unlock()
		return io.NewSectionReader(sess.src, ch.Offset, ch.Size), nil
	}

	return sess.svc.Transport.Put(partCtx, url, open, ch.Size, sess.addLive)
}

// recordPart фиксирует подтверждённую часть и обновляет ledger.
func (sess *Session) recordPart(number int, etag string, size int64) {
	sess.mu.Lock()
	if sess.done[number] {
		sess.mu.Unlock()
		return
	}
	sess.done[number] = true
	sess.parts = append(sess.parts, models.CompletedPart{PartNumber: number, ETag: etag})
	sess.doneBytes += size
	sess.liveBytes = 0
	parts := append([]models.CompletedPart{}, sess.parts...)
	fileID := sess.fileID
	sess.mu.Unlock()

	sess.svc.Ledger.UpdateParts(fileID, parts)
	sess.emit()
}

func (sess *Session) partDone(number int) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.done[number]
}

func (sess *Session) isPaused() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.paused
}

func (sess *Session) cancelled(ctx context.Context) bool {
	select {
	case <-sess.quit:
		return true
	default:
		return ctx.Err() != nil
	}
}

// aborted выполняет очистку после намеренной отмены и возвращает ErrAborted.
func (sess *Session) aborted() error {
	sess.mu.Lock()
	fileID := sess.fileID
	sess.mu.Unlock()

	if fileID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
		defer cancel()
		if err := sess.svc.API.Abort(ctx, fileID); err != nil {
			sess.svc.Log.Warn("best-effort abort failed", zap.String("file_id", fileID), zap.Error(err))
		}
		sess.svc.Ledger.Clear(fileID)
	}

	sess.mu.Lock()
	sess.state = models.StateIdle
	sess.parts = nil
	sess.done = nil
	sess.doneBytes = 0
	sess.liveBytes = 0
	sess.peakBytes = 0
	sess.fileID = ""
	sess.uploadID = ""
	sess.mu.Unlock()
	sess.emit()

	return models.ErrAborted
}

// fail переводит сессию в error ровно один раз. Запись в ledger намеренно
// остаётся: повторная загрузка того же файла продолжится по fingerprint.
func (sess *Session) fail(step models.UploadStep, err error) error {
	werr := models.WrapStep(step, err)

	sess.mu.Lock()
	sess.state = models.StateError
	sess.errMsg = werr.Error()
	fileID := sess.fileID
	sess.mu.Unlock()

	sess.svc.Log.Error("upload failed",
		zap.String("step", string(step)),
		zap.String("file_id", fileID),
		zap.String("filename", sess.info.Name),
		zap.Error(err),
	)
	sess.emit()
	return werr
}

func (sess *Session) setState(st models.UploadState) {
	sess.mu.Lock()
	sess.state = st
	sess.mu.Unlock()
	sess.emit()
}

func (sess *Session) addLive(n int64) {
	sess.mu.Lock()
	sess.liveBytes += n
	sess.mu.Unlock()
	sess.emit()
}

// record собирает ledger-запись из текущего состояния.
func (sess *Session) record() models.UploadRecord {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return models.UploadRecord{
		FileID:         sess.fileID,
		UploadID:       sess.uploadID,
		Filename:       sess.info.Name,
		TotalSize:      sess.info.Size,
		PartSize:       sess.partSize,
		TotalParts:     sess.totalParts,
		FolderID:       sess.info.FolderID,
		CompletedParts: append([]models.CompletedPart{}, sess.parts...),
		UpdatedAt:      time.Now(),
	}
}

// partRefs возвращает подтверждённые части, упорядоченные по номеру — такими
// их ждёт complete.
func (sess *Session) partRefs() []uploadapi.PartRef {
	sess.mu.Lock()
	refs := make([]uploadapi.PartRef, 0, len(sess.parts))
	for _, p := range sess.parts {
		refs = append(refs, uploadapi.PartRef{PartNumber: p.PartNumber, ETag: p.ETag})
	}
	sess.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].PartNumber < refs[j].PartNumber })
	return refs
}

func (sess *Session) terminalLocked() bool {
	return sess.state == models.StateCompleted || sess.state == models.StateError
}

// emit рассылает снапшот всем наблюдателям.
func (sess *Session) emit() {
	sess.mu.Lock()
	snap := sess.snapshotLocked()
	observers := append([]func(models.ProgressSnapshot){}, sess.observers...)
	sess.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// dismiss шлёт финальный снапшот, по которому UI убирает индикатор.
func (sess *Session) dismiss() {
	sess.mu.Lock()
	snap := sess.snapshotLocked()
	observers := append([]func(models.ProgressSnapshot){}, sess.observers...)
	sess.mu.Unlock()

	snap.Dismissed = true
	for _, fn := range observers {
		fn(snap)
	}
}

func (sess *Session) snapshotLocked() models.ProgressSnapshot {
	bytes := sess.doneBytes + sess.liveBytes
	if bytes > sess.info.Size {
		bytes = sess.info.Size
	}
	// При ретраях liveBytes обнуляется; показанный прогресс не откатываем.
	if bytes < sess.peakBytes {
		bytes = sess.peakBytes
	}
	sess.peakBytes = bytes

	progress := 0
	if sess.info.Size > 0 {
		progress = int(math.Round(float64(bytes) / float64(sess.info.Size) * 100))
	}
	if sess.state == models.StateCompleted {
		progress = 100
	}
	if progress > 100 {
		progress = 100
	}

	return models.ProgressSnapshot{
		FileID:        sess.fileID,
		Filename:      sess.info.Name,
		State:         sess.state,
		UploadedBytes: bytes,
		TotalBytes:    sess.info.Size,
		Progress:      progress,
		PartsDone:     len(sess.parts),
		TotalParts:    sess.totalParts,
		Err:           sess.errMsg,
	}
}

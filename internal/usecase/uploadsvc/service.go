// Package uploadsvc реализует клиентскую машину состояний resumable-загрузки:
// fingerprint → initiate → последовательный цикл по частям (с пропуском уже
// известных бэкенду) → complete. Поддерживает паузу, отмену и подписку на
// снапшоты прогресса.
package uploadsvc

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadclient"
)

// Ledger — долговременный список незавершённых загрузок. Реализации обязаны
// глотать ошибки ввода-вывода: для живой сессии персистентность best-effort.
type Ledger interface {
	Save(rec models.UploadRecord)
	UpdateParts(fileID string, parts []models.CompletedPart)
	Clear(fileID string)
}

type Deps struct {
	API          uploadclient.Client
	Transport    *uploadclient.RetryingTransport
	Ledger       Ledger
	Log          *zap.Logger
	DismissAfter time.Duration
}

// Service создаёт сессии загрузки; каждая сессия ведёт ровно один файл.
type Service struct {
	Deps
}

// New конструирует сервис с заданными зависимостями, подставляя дефолты.
func New(deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Transport == nil {
		deps.Transport = uploadclient.NewRetryingTransport(uploadclient.NewPartTransport())
	}
	if deps.DismissAfter == 0 {
		deps.DismissAfter = 2 * time.Second
	}
	return &Service{Deps: deps}
}

// FileInfo описывает загружаемый файл.
type FileInfo struct {
	Name     string
	Size     int64
	MimeType string
	FolderID string
}

// NewSession создаёт сессию для src. Источник должен поддерживать повторное
// чтение с произвольного смещения: ретраи и fingerprint читают файл заново.
func (s *Service) NewSession(src io.ReaderAt, info FileInfo) *Session {
	return &Session{
		svc:   s,
		src:   src,
		info:  info,
		state: models.StateIdle,
		quit:  make(chan struct{}),
	}
}

package uploadclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yourname/upload_lite/internal/models"
)

const (
	// DefaultMaxRetries — число дополнительных попыток после первой.
	DefaultMaxRetries = 3
	// DefaultBackoffBase — задержка перед второй попыткой; дальше удваивается.
	DefaultBackoffBase = time.Second
)

// RetryingTransport повторяет неудачные попытки PutPart с растущей задержкой.
// ErrAborted не ретраится и прерывает ожидание между попытками.
type RetryingTransport struct {
	Inner       PartTransport
	MaxRetries  int
	BackoffBase time.Duration
}

// NewRetryingTransport оборачивает транспорт политикой ретраев по умолчанию.
func NewRetryingTransport(inner PartTransport) *RetryingTransport {
	return &RetryingTransport{
		Inner:       inner,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
	}
}

// Put выполняет до MaxRetries+1 попыток. open вызывается перед каждой попыткой
// и должен вернуть свежий reader с начала части. onBytes получает байты только
// текущей попытки; подтверждённым прогресс считает вызывающая сторона после
// успеха.
func (r *RetryingTransport) Put(ctx context.Context, url string, open func() (io.Reader, error), size int64, onBytes func(int64)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.BackoffBase << (attempt - 1) // 1s, 2s, 4s
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", models.ErrAborted
			}
		}

		body, err := open()
		if err != nil {
			return "", fmt.Errorf("open part source: %w", err)
		}

		etag, err := r.Inner.PutPart(ctx, url, body, size, onBytes)
		if err == nil {
			return etag, nil
		}
		if errors.Is(err, models.ErrAborted) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("part upload failed after %d attempts: %w", r.MaxRetries+1, lastErr)
}

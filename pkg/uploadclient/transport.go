package uploadclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yourname/upload_lite/internal/models"
)

// PartTransport выполняет одну попытку загрузки части: PUT сырых байт по
// presigned URL. Возвращает ETag, выданный хранилищем.
type PartTransport interface {
	PutPart(ctx context.Context, url string, body io.Reader, size int64, onBytes func(int64)) (string, error)
}

type partHTTP struct {
	c *http.Client
}

// NewPartTransport создаёт транспорт частей с HTTP-клиентом по умолчанию.
func NewPartTransport() PartTransport {
	return &partHTTP{c: &http.Client{}}
}

// PutPart загружает байты части. Отмена контекста до или во время запроса
// возвращает ErrAborted без ретраев на этом уровне.
func (t *partHTTP) PutPart(ctx context.Context, url string, body io.Reader, size int64, onBytes func(int64)) (string, error) {
	if ctx.Err() != nil {
		return "", models.ErrAborted
	}

	r := body
	if onBytes != nil {
		r = io.TeeReader(body, byteCounter{fn: onBytes})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, r)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = size

	resp, err := t.c.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", models.ErrAborted
		}
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("storage PUT failed: %s", resp.Status)
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", models.ErrMissingETag
	}
	return etag, nil
}

// byteCounter транслирует прочитанные байты в колбэк прогресса.
type byteCounter struct {
	fn func(int64)
}

func (w byteCounter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.fn(int64(len(p)))
	}
	return len(p), nil
}

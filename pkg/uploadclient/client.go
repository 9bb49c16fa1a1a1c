package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/pkg/uploadapi"
)

// Client — API управления загрузкой. Данные частей ходят мимо него, напрямую
// по presigned URL (см. PartTransport).
type Client interface {
	Initiate(ctx context.Context, req uploadapi.InitiateRequest) (uploadapi.InitiateResponse, error)
	PresignPart(ctx context.Context, fileID string, partNumber int) (uploadapi.PresignedURLResponse, error)
	MarkPartUploaded(ctx context.Context, fileID string, part uploadapi.PartRef) error
	Complete(ctx context.Context, fileID string, parts []uploadapi.PartRef) (uploadapi.FileRecord, error)
	Abort(ctx context.Context, fileID string) error
	UploadStatus(ctx context.Context, fileID string) (uploadapi.UploadStatusResponse, error)
}

type httpClient struct {
	base string
	c    *http.Client
}

// New создаёт клиента API поверх retryablehttp: транзиентные сбои
// управляющих запросов перезапрашиваются самим HTTP-клиентом.
func New(baseURL string) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	return &httpClient{
		base: strings.TrimRight(baseURL, "/"),
		c:    rc.StandardClient(),
	}
}

func (h *httpClient) Initiate(ctx context.Context, req uploadapi.InitiateRequest) (uploadapi.InitiateResponse, error) {
	var out uploadapi.InitiateResponse
	err := h.doJSON(ctx, http.MethodPost, uploadapi.InitiatePath, req, &out)
	return out, err
}

func (h *httpClient) PresignPart(ctx context.Context, fileID string, partNumber int) (uploadapi.PresignedURLResponse, error) {
	path := fmt.Sprintf(uploadapi.PresignPathFormat, fileID) + "?part_number=" + strconv.Itoa(partNumber)
	var out uploadapi.PresignedURLResponse
	err := h.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (h *httpClient) MarkPartUploaded(ctx context.Context, fileID string, part uploadapi.PartRef) error {
	path := fmt.Sprintf(uploadapi.PartUploadedPathFormat, fileID)
	return h.doJSON(ctx, http.MethodPost, path, part, nil)
}

func (h *httpClient) Complete(ctx context.Context, fileID string, parts []uploadapi.PartRef) (uploadapi.FileRecord, error) {
	path := fmt.Sprintf(uploadapi.CompletePathFormat, fileID)
	var out uploadapi.FileRecord
	err := h.doJSON(ctx, http.MethodPost, path, uploadapi.CompleteRequest{Parts: parts}, &out)
	return out, err
}

func (h *httpClient) Abort(ctx context.Context, fileID string) error {
	path := fmt.Sprintf(uploadapi.AbortPathFormat, fileID)
	return h.doJSON(ctx, http.MethodPost, path, nil, nil)
}

func (h *httpClient) UploadStatus(ctx context.Context, fileID string) (uploadapi.UploadStatusResponse, error) {
	path := fmt.Sprintf(uploadapi.StatusPathFormat, fileID)
	var out uploadapi.UploadStatusResponse
	err := h.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// doJSON выполняет запрос с JSON-телом и декодирует JSON-ответ, если out != nil.
func (h *httpClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, models.ErrNotFound)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, readDetail(resp.Body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readDetail достаёт поле detail из тела ошибки; иначе возвращает сырой текст.
func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(b, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(b))
}

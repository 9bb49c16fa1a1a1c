package models

import "time"

// UploadState — состояние сессии загрузки.
type UploadState string

const (
	StateIdle       UploadState = "idle"
	StateInitiating UploadState = "initiating"
	StateUploading  UploadState = "uploading"
	StatePaused     UploadState = "paused"
	StateCompleting UploadState = "completing"
	StateCompleted  UploadState = "completed"
	StateError      UploadState = "error"
)

// CompletedPart — подтверждённая часть: номер и ETag, выданный хранилищем.
// ETag передаётся в complete без изменений.
type CompletedPart struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// UploadRecord хранится в ledger и позволяет дочитать загрузку после рестарта.
type UploadRecord struct {
	FileID         string          `json:"file_id"`
	UploadID       string          `json:"upload_id"`
	Filename       string          `json:"filename"`
	TotalSize      int64           `json:"total_size"`
	PartSize       int64           `json:"part_size"`
	TotalParts     int             `json:"total_parts"`
	FolderID       string          `json:"folder_id,omitempty"`
	CompletedParts []CompletedPart `json:"completed_parts"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone возвращает копию записи, чтобы не делиться внутренними срезами.
func (r UploadRecord) Clone() UploadRecord {
	out := r
	out.CompletedParts = append([]CompletedPart{}, r.CompletedParts...)
	return out
}

// ProgressSnapshot — неизменяемый срез прогресса, рассылаемый наблюдателям.
type ProgressSnapshot struct {
	FileID        string
	Filename      string
	State         UploadState
	UploadedBytes int64
	TotalBytes    int64
	Progress      int // 0..100
	PartsDone     int
	TotalParts    int
	Err           string
	Dismissed     bool
}

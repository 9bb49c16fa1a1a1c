// Package uploadapi описывает HTTP-протокол resumable-загрузок: пути эндпоинтов
// и JSON-структуры запросов/ответов, общие для клиента и бэкенда.
package uploadapi

// Пути эндпоинтов управления загрузкой. Форматные строки принимают file_id.
const (
	InitiatePath           = "/upload/initiate"
	PresignPathFormat      = "/upload/%s/presigned-url"
	PartUploadedPathFormat = "/upload/%s/part-uploaded"
	CompletePathFormat     = "/upload/%s/complete"
	AbortPathFormat        = "/upload/%s/abort"
	StatusPathFormat       = "/upload/%s/upload-status"
)

// Статусы загрузки, которые отдаёт upload-status.
const (
	StatusUploading = "uploading"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusDeleted   = "deleted"
)

// PartRef связывает номер части с ETag, выданным хранилищем.
type PartRef struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

type InitiateRequest struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint"`
	MimeType    string `json:"mime_type,omitempty"`
	FolderID    string `json:"folder_id,omitempty"`
}

// InitiateResponse содержит параметры multipart-загрузки. UploadedParts не пуст,
// когда бэкенд нашёл незавершённую загрузку с тем же fingerprint.
type InitiateResponse struct {
	FileID        string    `json:"file_id"`
	UploadID      string    `json:"upload_id"`
	PartSize      int64     `json:"part_size"`
	TotalParts    int       `json:"total_parts"`
	UploadedParts []PartRef `json:"uploaded_parts,omitempty"`
}

type PresignedURLResponse struct {
	URL        string `json:"url"`
	PartNumber int    `json:"part_number"`
	ExpiresIn  int    `json:"expires_in"`
}

type PartUploadedResponse struct {
	UploadedParts int `json:"uploaded_parts"`
	TotalParts    int `json:"total_parts"`
}

type CompleteRequest struct {
	Parts []PartRef `json:"parts"`
}

// FileRecord — финальное описание файла после complete.
type FileRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Mime     string `json:"mime,omitempty"`
	Status   string `json:"status"`
	FolderID string `json:"folder_id,omitempty"`
}

type UploadStatusResponse struct {
	Status        string    `json:"status"`
	UploadedParts []PartRef `json:"uploaded_parts"`
}

package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("upload not found")
	ErrNotActive      = errors.New("upload is not in progress")
	ErrAborted        = errors.New("upload aborted")
	ErrMissingETag    = errors.New("no etag in storage response")
	ErrPartOutOfRange = errors.New("part number out of range")
)

// UploadStep — шаг конвейера загрузки; используется только для логов и телеметрии.
type UploadStep string

const (
	StepFingerprint UploadStep = "fingerprint"
	StepInitiate    UploadStep = "initiate"
	StepPresign     UploadStep = "presign"
	StepPartUpload  UploadStep = "part_upload"
	StepAck         UploadStep = "ack"
	StepComplete    UploadStep = "complete"
)

// StepError помечает, на каком шаге загрузка завершилась ошибкой.
type StepError struct {
	Step UploadStep
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// WrapStep оборачивает ошибку шагом; nil остаётся nil.
func WrapStep(step UploadStep, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}

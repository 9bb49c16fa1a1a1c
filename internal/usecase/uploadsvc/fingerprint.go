package uploadsvc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Fingerprint считает SHA-256 всего содержимого файла и возвращает hex в нижнем
// регистре. Бэкенд использует отпечаток для дедупликации и возобновления.
func Fingerprint(src io.ReaderAt, size int64) (string, error) {
	h := sha256.New()
	if size > 0 {
		if _, err := io.Copy(h, io.NewSectionReader(src, 0, size)); err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

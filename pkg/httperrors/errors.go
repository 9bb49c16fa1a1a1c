package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/yourname/upload_lite/internal/models"
)

// Write сериализует доменную ошибку в ответ вида {"detail": "..."}.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, err, http.StatusNotFound)
	case errors.Is(err, models.ErrNotActive):
		writeDetail(w, err, http.StatusConflict)
	case errors.Is(err, models.ErrPartOutOfRange):
		writeDetail(w, err, http.StatusUnprocessableEntity)
	default:
		if containsAny(err.Error(), "etag mismatch", "missing part", "size mismatch", "is required") {
			writeDetail(w, err, http.StatusUnprocessableEntity)
			return
		}
		writeDetail(w, err, http.StatusBadRequest)
	}
}

func writeDetail(w http.ResponseWriter, err error, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}

func containsAny(msg string, needles ...string) bool {
	for _, s := range needles {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

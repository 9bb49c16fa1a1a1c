package backendhttp

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yourname/upload_lite/pkg/uploadapi"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную запускает сбор брошенных незавершённых загрузок.
func (a *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	_ = sweepOnce(a.dataDir, manualGCTTL)
	w.WriteHeader(http.StatusNoContent)
}

// StartGC стартует периодическую очистку каталога данных.
func StartGC(root string, ttl time.Duration, every time.Duration) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = sweepOnce(root, ttl)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}

// sweepOnce удаляет каталоги загрузок, которые давно не обновлялись и так и
// не были завершены.
func sweepOnce(root string, ttl time.Duration) error {
	now := time.Now()
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(root, e.Name())
		metaPath := filepath.Join(dir, metaFileName)
		fi, err := os.Stat(metaPath)
		if err != nil {
			continue
		}
		if now.Sub(fi.ModTime()) < ttl {
			continue
		}

		b, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		m, err := decodeMeta(b)
		if err != nil {
			continue
		}

		if m.Status == uploadapi.StatusUploading && len(m.Blobs) < m.TotalParts {
			_ = os.RemoveAll(dir)
		}
	}

	return nil
}

package backendhttp

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// DefaultPartSize — размер части, который сервер сообщает клиентам.
const DefaultPartSize = 8 << 20

// Server обслуживает Upload API поверх каталога с данными.
type Server struct {
	dataDir  string
	partSize int64
	mu       sync.Mutex
}

// New создаёт HTTP-обработчик. partSize <= 0 означает размер по умолчанию.
func New(dataDir string, partSize int64) http.Handler {
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	srv := &Server{
		dataDir:  dataDir,
		partSize: partSize,
	}
	return srv.routes()
}

// routes регистрирует обработчики управления загрузкой, блобов и здоровья.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/upload/initiate", a.initiate)
	r.Route("/upload/{fileID}", func(ur chi.Router) {
		ur.Get("/presigned-url", a.presignPart)
		ur.Post("/part-uploaded", a.partUploaded)
		ur.Post("/complete", a.complete)
		ur.Post("/abort", a.abort)
		ur.Get("/upload-status", a.uploadStatus)
	})

	r.Put("/blob/{fileID}/{part}", a.putBlob)

	r.Get("/health", a.health)
	r.HandleFunc("/admin/gc", a.gcOnce)

	return r
}

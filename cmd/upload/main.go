package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/ledger"
	"github.com/yourname/upload_lite/internal/models"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
	"github.com/yourname/upload_lite/pkg/uploadclient"
)

// main загружает один файл через resumable multipart API. Ctrl-C отменяет
// загрузку с best-effort abort на бэкенде.
func main() {
	filePath := flag.String("file", "", "path to the file to upload")
	folderID := flag.String("folder", "", "destination folder id")
	mimeType := flag.String("mime", "", "mime type of the file")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Fatal(err)
	}

	transport := uploadclient.NewRetryingTransport(uploadclient.NewPartTransport())
	if cfg.PartRetries > 0 {
		transport.MaxRetries = cfg.PartRetries
	}

	svc := uploadsvc.New(uploadsvc.Deps{
		API:       uploadclient.New(cfg.APIBaseURL),
		Transport: transport,
		Ledger:    ledger.NewFileStore(cfg.LedgerDir, logger),
		Log:       logger,
	})

	// Реконсиляцию хвостов здесь намеренно не запускаем: abort прошлой
	// незавершённой загрузки убил бы возобновление по fingerprint.
	// Для явной чистки есть cmd/reconcile.
	sess := svc.NewSession(f, uploadsvc.FileInfo{
		Name:     filepath.Base(*filePath),
		Size:     info.Size(),
		MimeType: *mimeType,
		FolderID: *folderID,
	})

	bar := newProgressBar(fmt.Sprintf("Uploading %s", filepath.Base(*filePath)), info.Size())
	sess.Subscribe(renderSnapshot(bar))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := sess.Run(ctx)
	switch {
	case errors.Is(err, models.ErrAborted):
		fmt.Println("upload cancelled")
		os.Exit(1)
	case err != nil:
		log.Fatal(err)
	}

	fmt.Printf("uploaded: id=%s name=%s size=%d\n", file.ID, file.Name, file.Size)
}

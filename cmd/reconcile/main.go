package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/ledger"
	"github.com/yourname/upload_lite/internal/usecase/reconcile"
	"github.com/yourname/upload_lite/pkg/uploadclient"
)

// main однократно сверяет локальный ledger с бэкендом и чистит брошенные
// загрузки. Запускается при старте приложения или вручную.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := ledger.NewFileStore(cfg.LedgerDir, logger)
	rec := reconcile.New(uploadclient.New(cfg.APIBaseURL), store, logger)
	rec.Run(ctx)

	log.Println("reconciliation finished")
}

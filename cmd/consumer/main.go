// Command consumer processes playlist export requests from RabbitMQ and
// writes each export as a JSON document.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/iliyamo/openmusic-api/internal/config"
	"github.com/iliyamo/openmusic-api/internal/database"
	"github.com/iliyamo/openmusic-api/internal/queue"
	"github.com/iliyamo/openmusic-api/internal/repository"
)

func main() {
	cfg := config.Load()

	db, err := database.OpenFromConfig(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	exp := &queue.FileExporter{
		Dir:       cfg.ExportOutputDir,
		Playlists: repository.NewPlaylistRepo(db),
		Songs:     repository.NewSongRepo(db),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("export-consumer: consuming %q, writing to %s", cfg.ExportQueue, cfg.ExportOutputDir)
	err = queue.StartExportConsumer(ctx, cfg.RabbitMQURL, cfg.ExportQueue, exp)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("export-consumer: %v", err)
	}
	log.Printf("export-consumer: stopped")
}

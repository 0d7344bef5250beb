package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/iliyamo/annotation-tracker/internal/config"
	"github.com/iliyamo/annotation-tracker/internal/database"
	"github.com/iliyamo/annotation-tracker/internal/export"
	"github.com/iliyamo/annotation-tracker/internal/repository"
)

func main() {
	once := flag.Bool("once", false, "write a single snapshot and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("no .env file, using process environment")
	}

	file, err := config.LoadFile()
	if err != nil {
		logger.Error.Fatalf("config: %v", err)
	}
	cfg, err := config.FromFile(file)
	if err != nil {
		logger.Error.Fatalf("config: %v", err)
	}
	exp := config.LoadExportConfig(file)

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error.Fatalf("database: %v", err)
	}
	defer db.Close()

	snap, err := export.NewSnapshotter(repository.NewAnnotationRepo(db), exp.Dir, exp.Formats)
	if err != nil {
		logger.Error.Fatalf("exporter: %v", err)
	}

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		paths, err := snap.RunOnce(ctx)
		if err != nil {
			logger.Error.Fatalf("exporter: %v", err)
		}
		logger.Info.Printf("wrote %v", paths)
		return
	}

	if err := snap.Start(exp.Schedule); err != nil {
		logger.Error.Fatalf("exporter: %v", err)
	}
	logger.Info.Printf("exporting %v to %s on %q", exp.Formats, exp.Dir, exp.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	snap.Stop()
	logger.Info.Println("exporter stopped")
}

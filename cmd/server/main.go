package main // Entry point of the annotation API server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/iliyamo/annotation-tracker/internal/config"
	"github.com/iliyamo/annotation-tracker/internal/database"
	"github.com/iliyamo/annotation-tracker/internal/handler"
	"github.com/iliyamo/annotation-tracker/internal/ident"
	"github.com/iliyamo/annotation-tracker/internal/queue"
	"github.com/iliyamo/annotation-tracker/internal/repository"
	"github.com/iliyamo/annotation-tracker/internal/router"
	"github.com/iliyamo/annotation-tracker/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		logger.Error.Fatalf("migrate: %v", err)
	}
	cancel()

	// Redis is optional: without it the stats cache and rate limiter are off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.RabbitMQURL != "" {
		events = queue.NewPublisher(cfg.RabbitMQURL)
		if cfg.AuditEnabled {
			go queue.StartAuditConsumer(cfg.RabbitMQURL, cfg.AuditLogDir)
		}
	}

	ids := ident.New()
	annotations := repository.NewAnnotationRepo(db)
	users := repository.NewUserRepo(db)

	lifecycle := service.NewLifecycle(annotations, ids, events)
	stats := service.NewStats(annotations, users)
	progress := service.NewProgress(repository.NewProgressRepo(db), repository.NewTaskRepo(db))
	accounts := service.NewAccounts(users, ids, service.TokenSettings{
		Secret:     cfg.JWTSecret,
		TTLMinutes: cfg.AccessTTLMin,
		BcryptCost: cfg.BcryptCost,
	}).WithAdmins(cfg.AdminEmails)

	lim := router.Limits{
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	}

	e := router.New()
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts), cfg.JWTSecret, lim)
	router.RegisterAnnotations(e, handler.NewAnnotationHandler(lifecycle, stats), cfg.JWTSecret, lim)
	router.RegisterProgress(e, handler.NewProgressHandler(progress), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		logger.Info.Printf("listening on %s (env=%s, driver=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("shutdown: %v", err)
	}
	logger.Info.Println("server stopped")
}

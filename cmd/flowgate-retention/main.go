package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kosarev/flowgate/internal/repo"
	"github.com/kosarev/flowgate/internal/retention"
	"github.com/kosarev/flowgate/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := telemetry.SetupLogger()
	logger.Info("starting flowgate-retention")

	ctx := context.Background()

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	days := 30
	if v := os.Getenv("LOG_RETENTION_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	pruner := retention.New(retention.Config{
		Logs:      repo.NewLogRepo(pool),
		Retention: time.Duration(days) * 24 * time.Hour,
		Logger:    logger,
	})

	// Первая очистка сразу при старте
	if err := pruner.Run(ctx); err != nil {
		logger.Error("initial retention run failed", "error", err)
	}

	c, err := pruner.Schedule(ctx, os.Getenv("RETENTION_CRON"))
	if err != nil {
		logger.Error("failed to schedule retention", "error", err)
		os.Exit(1)
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-sigCtx.Done()
	logger.Info("shutting down")

	stopCtx := c.Stop()
	<-stopCtx.Done()

	logger.Info("stopped")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kosarev/flowgate/internal/api"
	"github.com/kosarev/flowgate/internal/auth"
	"github.com/kosarev/flowgate/internal/cache"
	"github.com/kosarev/flowgate/internal/engine"
	"github.com/kosarev/flowgate/internal/mq"
	"github.com/kosarev/flowgate/internal/openapi"
	"github.com/kosarev/flowgate/internal/repo"
	"github.com/kosarev/flowgate/internal/sink"
	"github.com/kosarev/flowgate/internal/telemetry"
)

var startTime = time.Now()

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowgate-api")

	ctx := context.Background()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Redis-кэш определений. Отсутствие REDIS_URL — работа напрямую
	// с базой
	redisClient, err := cache.NewClient(ctx)
	if err != nil {
		logger.Warn("cache unavailable, degrading to direct store reads", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to cache")
	}
	cacheSvc := cache.NewService(redisClient, logger)

	// AMQP для событий execution.completed. Опционален
	var publisher *mq.Publisher
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		conn, err := mq.NewConnection(amqpURL, logger)
		if err != nil {
			logger.Warn("amqp unavailable, execution events disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("amqp topology setup failed", "error", err)
			} else {
				publisher = mq.NewPublisher(conn, logger)
			}
		}
	}

	// Репозитории
	flowRepo := repo.NewFlowRepo(pool)
	blockRepo := repo.NewBlockRepo(pool)
	logRepo := repo.NewLogRepo(pool)

	// Асинхронный приёмник execution logs
	logSink := sink.New(sink.Config{
		Writer:    logRepo,
		Publisher: publisher,
		Logger:    logger,
	})
	logSink.Start(ctx)
	defer logSink.Stop()

	// Движок выполнения
	exec := engine.New(engine.Config{
		Flows:  flowRepo,
		Blocks: blockRepo,
		Cache:  cacheSvc,
		Sink:   logSink,
		Logger: logger,
	})

	// API handler
	handler := api.NewHandler(api.Config{
		Executor: exec,
		Flows:    flowRepo,
		Blocks:   blockRepo,
		Logs:     logRepo,
		Cache:    cacheSvc,
		Importer: openapi.NewImporter(cacheSvc, logger),
		BaseURL:  os.Getenv("BASE_URL"),
		Logger:   logger,
	})

	authenticator := auth.NewFromEnv(logger)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// API маршруты
	handler.RegisterRoutes(mux, authenticator.Middleware())

	addr := ":3003"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-sigCtx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

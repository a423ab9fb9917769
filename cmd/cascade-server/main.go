// Cascade server — HTTP API, orchestrator и scheduler в одном процессе.
//
// Обязателен только Postgres (DB_URL). RabbitMQ, GCS и Anthropic
// подключаются при наличии соответствующих переменных окружения;
// без них сервер работает с урезанными возможностями.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Cascade/internal/api"
	"github.com/shaiso/Cascade/internal/blocks"
	"github.com/shaiso/Cascade/internal/config"
	"github.com/shaiso/Cascade/internal/executor"
	"github.com/shaiso/Cascade/internal/llm"
	"github.com/shaiso/Cascade/internal/mq"
	"github.com/shaiso/Cascade/internal/orchestrator"
	"github.com/shaiso/Cascade/internal/repo"
	"github.com/shaiso/Cascade/internal/scheduler"
	"github.com/shaiso/Cascade/internal/storage"
	"github.com/shaiso/Cascade/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting cascade-server")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	nodeRunRepo := repo.NewNodeRunRepo(pool)
	logRepo := repo.NewLogRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ опционален: без него события runs не публикуются.
	var publisher *mq.Publisher
	if cfg.RabbitMQURL != "" {
		broker, err := mq.Dial(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer broker.Close()

		publisher = mq.NewPublisher(broker, logger)
		logger.Info("connected to rabbitmq")
	} else {
		logger.Info("rabbitmq url not set, run events disabled")
	}

	// Blob-хранилище для блока gcs.write.
	var blobs storage.Writer
	if cfg.GCSBucket != "" {
		blobs = storage.NewGCSWriter(cfg.GCSBucket)
		logger.Info("using gcs storage", "bucket", cfg.GCSBucket)
	} else {
		blobs = storage.NewMemoryWriter("cascade-local")
		logger.Info("gcs bucket not set, using in-memory storage")
	}

	// LLM-провайдер для блока llm.simple.
	var provider llm.Provider
	if cfg.AnthropicAPIKey != "" {
		provider = llm.NewAnthropicProvider(cfg.AnthropicAPIKey)
		logger.Info("anthropic provider enabled")
	} else {
		logger.Info("anthropic api key not set, llm.simple runs degraded")
	}

	registry, err := blocks.DefaultRegistry(blocks.Deps{LLM: provider})
	if err != nil {
		logger.Error("failed to build block registry", "error", err)
		os.Exit(1)
	}

	exec := executor.New(executor.Config{
		Registry:   registry,
		NodeRuns:   nodeRunRepo,
		Logs:       logRepo,
		HTTPClient: &http.Client{Timeout: cfg.BlockHTTPTimeout},
		Blobs:      blobs,
		Logger:     logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		Workflows: workflowRepo,
		Runs:      runRepo,
		Logs:      logRepo,
		Executor:  exec,
		Registry:  registry,
		Publisher: publisher,
		Logger:    logger,
	})

	// Подхватываем runs, оставшиеся pending после прошлого рестарта.
	if resumed, err := orch.ResumePending(context.Background(), 100); err != nil {
		logger.Error("failed to resume pending runs", "error", err)
	} else if resumed > 0 {
		logger.Info("resumed pending runs", "count", resumed)
	}

	// Scheduler живёт до отмены контекста процесса.
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()

	sched := scheduler.New(scheduler.Config{
		Schedules:    scheduleRepo,
		Starter:      orch,
		Logger:       logger,
		TickInterval: cfg.SchedulerTick,
	})
	go sched.Start(schedCtx)

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Workflows: workflowRepo,
		Runs:      runRepo,
		NodeRuns:  nodeRunRepo,
		Schedules: scheduleRepo,
		Orch:      orch,
		Registry:  registry,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Сначала перестаём принимать запросы, потом дожидаемся активных runs.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	schedCancel()
	orch.Stop()

	logger.Info("stopped")
}

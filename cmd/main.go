package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/config"
	"github.com/interview-prep/judge/internal/docker"
	"github.com/interview-prep/judge/internal/events"
	"github.com/interview-prep/judge/internal/httpapi"
	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/internal/metrics"
	"github.com/interview-prep/judge/internal/pipeline"
	"github.com/interview-prep/judge/internal/rabbitmq"
	"github.com/interview-prep/judge/internal/rabbitmq/consumer"
	"github.com/interview-prep/judge/internal/rabbitmq/responder"
	"github.com/interview-prep/judge/internal/scheduler"
	"github.com/interview-prep/judge/internal/stages/compiler"
	"github.com/interview-prep/judge/internal/stages/executor"
	"github.com/interview-prep/judge/internal/stages/packager"
	"github.com/interview-prep/judge/internal/stages/verifier"
	"github.com/interview-prep/judge/internal/storage"
	"github.com/interview-prep/judge/pkg/constants"
)

func main() {
	// Initialize the logger
	logger.InitializeLogger()
	defer logger.Sync()

	logger := logger.NewNamedLogger("main")
	logger.Info("Starting judge")

	// Load the configuration
	cfg := config.NewConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.New()

	// Storage
	problems, submissions, closeStore := newStores(ctx, logger, cfg)
	defer closeStore()

	problemPackager := packager.NewPackager(cfg.WorkspaceDir)
	if cfg.ProblemsDir != "" {
		loaded, err := problemPackager.SeedRepository(ctx, cfg.ProblemsDir, problems)
		if err != nil {
			logger.Warnf("Some problem packages in %s could not be loaded: %s", cfg.ProblemsDir, err)
		}
		logger.Infof("Loaded %d problem package(s) from %s", loaded, cfg.ProblemsDir)
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Errorf("Failed to close redis client: %s", err)
			}
		}()
		problems = storage.NewCachedProblemRepository(problems, redisClient, cfg.ProblemCacheTTL)
	}

	// Events
	publisher := events.NewNoopPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Errorf("Failed to close event publisher: %s", err)
		}
	}()

	// Judge stages
	judge := pipeline.NewJudge(pipeline.Dependencies{
		Problems:    problems,
		Submissions: submissions,
		Guard:       compiler.NewGuard(cfg.MinSourceLength),
		Compiler: compiler.NewCompiler(compiler.Options{
			CompilerPath: cfg.CompilerPath,
			Flags:        cfg.CompilerFlags,
			WorkspaceDir: cfg.WorkspaceDir,
			Timeout:      cfg.CompileTimeout,
		}),
		Executor:  executor.NewExecutor(newRunner(ctx, logger, cfg)),
		Verifier:  verifier.NewVerifier(),
		Publisher: publisher,
		Metrics:   appMetrics,
	})

	// Queue transport
	var (
		conn           *amqp.Connection
		queueResponder responder.Responder
	)
	if cfg.RabbitMQEnabled {
		conn = rabbitmq.NewRabbitMqConnection(cfg)
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Errorf("Failed to close RabbitMQ connection: %s", err)
			}
		}()

		queueResponder = responder.NewResponder(rabbitmq.NewRabbitMQChannel(conn), cfg.PublishChanSize)
		defer func() {
			if err := queueResponder.Close(); err != nil {
				logger.Errorf("Failed to close responder: %s", err)
			}
		}()
	}

	pool := scheduler.NewScheduler(cfg.MaxWorkers, judge, queueResponder, appMetrics)
	defer pool.Shutdown()

	if cfg.RabbitMQEnabled {
		queueConsumer := consumer.NewConsumer(
			rabbitmq.NewRabbitMQChannel(conn),
			cfg.ConsumeQueueName,
			pool,
			queueResponder,
			appMetrics,
		)
		go queueConsumer.Listen()
	}

	server := httpapi.NewServer(httpapi.Dependencies{
		Scheduler:   pool,
		Problems:    problems,
		Submissions: submissions,
		Packager:    problemPackager,
		Validator:   httpapi.NewJWTValidator(cfg.JWTSecret),
		Metrics:     appMetrics,
	})
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Errorf("HTTP server stopped with error: %s", err)
	}
	logger.Info("Judge stopped")
}

// newStores picks postgres when a DSN is configured and process memory
// otherwise. The returned func releases whatever was opened.
func newStores(
	ctx context.Context,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) (storage.ProblemRepository, storage.SubmissionStore, func()) {
	if cfg.PostgresDSN == "" {
		return storage.NewMemoryProblemRepository(), storage.NewMemorySubmissionStore(), func() {}
	}

	store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.MaxWorkers * 2,
		MaxIdleConns:    cfg.MaxWorkers,
		ConnMaxLifetime: constants.PostgresConnMaxLifetime,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize postgres store: %s", err)
	}
	return store, store, func() {
		if err := store.Close(); err != nil {
			logger.Errorf("Failed to close postgres store: %s", err)
		}
	}
}

func newRunner(ctx context.Context, logger *zap.SugaredLogger, cfg *config.Config) executor.Runner {
	if cfg.ExecutionBackend != constants.ExecutionBackendDocker {
		return executor.NewLocalRunner(cfg.TestTimeout, cfg.MaxOutputBytes)
	}

	dCli, err := docker.NewDockerClient()
	if err != nil {
		logger.Fatalf("Failed to initialize Docker client: %s", err)
	}
	if err := dCli.EnsureImage(ctx, cfg.SandboxImage); err != nil {
		logger.Fatalf("Failed to pull sandbox image %s: %s", cfg.SandboxImage, err)
	}
	logger.Infof("Running test cases in %s containers", cfg.SandboxImage)
	return executor.NewDockerRunner(dCli, executor.DockerOptions{
		Image:          cfg.SandboxImage,
		Timeout:        cfg.TestTimeout,
		MaxOutputBytes: cfg.MaxOutputBytes,
		MemoryKB:       cfg.SandboxMemoryKB,
	})
}

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/languages"
)

type Config struct {
	// Compilation
	CompilerPath    string
	CompilerFlags   []string
	CompileTimeout  time.Duration
	MinSourceLength int
	WorkspaceDir    string

	// Execution
	TestTimeout      time.Duration
	MaxOutputBytes   int
	ExecutionBackend string
	SandboxImage     string
	SandboxMemoryKB  int64
	MaxWorkers       int

	// HTTP
	HTTPAddr  string
	JWTSecret string

	// Storage and events. Empty values disable the backend.
	PostgresDSN     string
	RedisAddr       string
	ProblemCacheTTL time.Duration
	ProblemsDir     string
	KafkaBrokers    []string
	KafkaTopic      string

	// Queue transport
	RabbitMQEnabled  bool
	RabbitMQURL      string
	PublishChanSize  int
	ConsumeQueueName string
}

func NewConfig() *Config {
	logger := logger.NewNamedLogger("config")

	_, err := os.Stat(".env")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("failed to stat .env file with error: %v", err)
		}
	} else {
		if os.Getenv("ENV") == "PROD" {
			logger.Warn(".env file detected in production environment. This is not recommended.")
		}
		err = godotenv.Load(".env")
		if err != nil {
			logger.Fatalf("failed to load .env file with error: %v", err)
		}
	}

	cfg := &Config{}
	compilerConfig(logger, cfg)
	executionConfig(logger, cfg)
	httpConfig(logger, cfg)
	storageConfig(logger, cfg)
	rabbitmqConfig(logger, cfg)
	return cfg
}

func compilerConfig(logger *zap.SugaredLogger, cfg *Config) {
	cfg.CompilerPath = ResolveCompilerPath(os.Getenv("COMPILER_PATH"), constants.CompilerCandidates)
	logger.Infof("Using compiler %s", cfg.CompilerPath)

	flags, err := shlex.Split(os.Getenv("COMPILER_FLAGS"))
	if err != nil {
		logger.Fatalf("failed to parse COMPILER_FLAGS with error: %v", err)
	}
	standard, err := languages.StandardFlags(languages.CPP, os.Getenv("CPP_STANDARD"))
	if err != nil {
		logger.Fatalf("failed to parse CPP_STANDARD with error: %v", err)
	}
	cfg.CompilerFlags = append(standard, flags...)

	cfg.CompileTimeout = durationMs(logger, "COMPILE_TIMEOUT_MS", constants.DefaultCompileTimeoutMs)
	cfg.MinSourceLength = intVar(logger, "MIN_SOURCE_LENGTH", constants.DefaultMinSourceLength)

	cfg.WorkspaceDir = os.Getenv("WORKSPACE_DIR")
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = os.TempDir()
		logger.Warnf("WORKSPACE_DIR is not set, using default value %s", cfg.WorkspaceDir)
	}
}

func executionConfig(logger *zap.SugaredLogger, cfg *Config) {
	cfg.TestTimeout = durationMs(logger, "TEST_TIMEOUT_MS", constants.DefaultTestTimeoutMs)
	cfg.MaxOutputBytes = intVar(logger, "MAX_OUTPUT_BYTES", constants.DefaultMaxOutputBytes)
	cfg.MaxWorkers = intVar(logger, "MAX_WORKERS", constants.DefaultMaxWorkers)
	if cfg.MaxWorkers < 1 {
		logger.Fatalf("MAX_WORKERS must be positive, got %d", cfg.MaxWorkers)
	}

	cfg.ExecutionBackend = strings.ToLower(stringVar(logger, "EXECUTION_BACKEND", constants.DefaultExecutionBackend))
	switch cfg.ExecutionBackend {
	case constants.ExecutionBackendLocal, constants.ExecutionBackendDocker:
	default:
		logger.Fatalf("unknown EXECUTION_BACKEND %q", cfg.ExecutionBackend)
	}
	cfg.SandboxImage = stringVar(logger, "SANDBOX_IMAGE", constants.DefaultSandboxImage)
	cfg.SandboxMemoryKB = int64(intVar(logger, "SANDBOX_MEMORY_KB", constants.DefaultSandboxMemoryKB))
}

func httpConfig(logger *zap.SugaredLogger, cfg *Config) {
	cfg.HTTPAddr = stringVar(logger, "HTTP_ADDR", constants.DefaultHTTPAddr)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, authenticated endpoints will reject every request")
	}
}

func storageConfig(logger *zap.SugaredLogger, cfg *Config) {
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN is not set, problems and submissions are kept in memory")
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR is not set, problem cache disabled")
	}
	cfg.ProblemCacheTTL = time.Duration(intVar(logger, "PROBLEM_CACHE_TTL_SEC", constants.DefaultProblemCacheTTLSec)) * time.Second
	cfg.ProblemsDir = os.Getenv("PROBLEMS_DIR")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	} else {
		logger.Warn("KAFKA_BROKERS is not set, submission events are not published")
	}
	cfg.KafkaTopic = stringVar(logger, "KAFKA_TOPIC", constants.DefaultKafkaTopic)
}

func rabbitmqConfig(logger *zap.SugaredLogger, cfg *Config) {
	enabled := os.Getenv("RABBITMQ_ENABLED")
	if enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			logger.Fatalf("failed to parse RABBITMQ_ENABLED with error: %v", err)
		}
		cfg.RabbitMQEnabled = v
	}

	rabbitmqHost := stringVar(logger, "RABBITMQ_HOST", constants.DefaultRabbitmqHost)
	rabbitmqPortStr := stringVar(logger, "RABBITMQ_PORT", constants.DefaultRabbitmqPort)
	rabbitmqPort, err := strconv.ParseUint(rabbitmqPortStr, 10, 16)
	if err != nil {
		logger.Fatalf("failed to parse RABBITMQ_PORT with error: %v", err)
	}
	rabbitmqUser := stringVar(logger, "RABBITMQ_USER", constants.DefaultRabbitmqUser)
	rabbitmqPassword := stringVar(logger, "RABBITMQ_PASSWORD", constants.DefaultRabbitmqPassword)

	cfg.RabbitMQURL = fmt.Sprintf("amqp://%s:%s@%s:%d/", rabbitmqUser, rabbitmqPassword, rabbitmqHost, rabbitmqPort)
	cfg.PublishChanSize = intVar(logger, "RABBITMQ_PUBLISH_CHAN_SIZE", constants.DefaultRabbitmqPublishChanSize)
	cfg.ConsumeQueueName = stringVar(logger, "WORKER_QUEUE_NAME", constants.DefaultWorkerQueueName)
}

// ResolveCompilerPath returns explicit when set, otherwise the first
// candidate that exists as a regular file, otherwise whatever g++ resolves to
// on PATH. The bare name is the last resort so a missing toolchain surfaces
// as ErrToolchainUnavailable at compile time instead of at startup.
func ResolveCompilerPath(explicit string, candidates []string) string {
	if explicit != "" {
		return explicit
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	if path, err := exec.LookPath(constants.DefaultCompilerName); err == nil {
		return path
	}
	return constants.DefaultCompilerName
}

func stringVar(logger *zap.SugaredLogger, name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		logger.Warnf("%s is not set, using default value %s", name, def)
		return def
	}
	return v
}

func intVar(logger *zap.SugaredLogger, name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		logger.Warnf("%s is not set, using default value %d", name, def)
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Fatalf("failed to parse %s with error: %v", name, err)
	}
	return n
}

func durationMs(logger *zap.SugaredLogger, name string, defMs int) time.Duration {
	ms := intVar(logger, name, defMs)
	if ms <= 0 {
		logger.Fatalf("%s must be positive, got %d", name, ms)
	}
	return time.Duration(ms) * time.Millisecond
}

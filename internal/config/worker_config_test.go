package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/interview-prep/judge/internal/config"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/tests"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.CompileTimeout != time.Duration(constants.DefaultCompileTimeoutMs)*time.Millisecond {
		t.Fatalf("unexpected compile timeout %s", cfg.CompileTimeout)
	}
	if cfg.TestTimeout != 2*time.Second {
		t.Fatalf("expected 2s test timeout, got %s", cfg.TestTimeout)
	}
	if cfg.MaxOutputBytes != constants.DefaultMaxOutputBytes || cfg.MinSourceLength != constants.DefaultMinSourceLength {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.MaxWorkers != constants.DefaultMaxWorkers {
		t.Fatalf("expected default max workers %d, got %d", constants.DefaultMaxWorkers, cfg.MaxWorkers)
	}
	if cfg.ExecutionBackend != constants.ExecutionBackendLocal {
		t.Fatalf("expected local backend, got %q", cfg.ExecutionBackend)
	}
	if len(cfg.CompilerFlags) != 0 {
		t.Fatalf("expected no compiler flags, got %v", cfg.CompilerFlags)
	}
	if cfg.PostgresDSN != "" || cfg.RedisAddr != "" || len(cfg.KafkaBrokers) != 0 || cfg.RabbitMQEnabled {
		t.Fatalf("optional backends must default to disabled: %+v", cfg)
	}
	if cfg.KafkaTopic != constants.DefaultKafkaTopic {
		t.Fatalf("unexpected kafka topic %q", cfg.KafkaTopic)
	}
	if cfg.ProblemCacheTTL != time.Duration(constants.DefaultProblemCacheTTLSec)*time.Second {
		t.Fatalf("unexpected cache ttl %s", cfg.ProblemCacheTTL)
	}
}

func TestCompilerConfig_Custom(t *testing.T) {
	t.Setenv("COMPILER_PATH", "/opt/gcc/bin/g++")
	t.Setenv("COMPILER_FLAGS", `-O2 -DNAME="two words" -Wall`)
	t.Setenv("CPP_STANDARD", "17")
	t.Setenv("COMPILE_TIMEOUT_MS", "1500")
	t.Setenv("MIN_SOURCE_LENGTH", "5")
	t.Setenv("WORKSPACE_DIR", "/var/judge")

	cfg := NewConfig()
	if cfg.CompilerPath != "/opt/gcc/bin/g++" {
		t.Fatalf("unexpected compiler path %q", cfg.CompilerPath)
	}
	want := []string{"-std=c++17", "-O2", "-DNAME=two words", "-Wall"}
	if fmt.Sprint(cfg.CompilerFlags) != fmt.Sprint(want) {
		t.Fatalf("expected flags %q, got %q", want, cfg.CompilerFlags)
	}
	if cfg.CompileTimeout != 1500*time.Millisecond || cfg.MinSourceLength != 5 || cfg.WorkspaceDir != "/var/judge" {
		t.Fatalf("unexpected compiler config: %+v", cfg)
	}
}

func TestStorageConfig_Custom(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/judge")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("PROBLEM_CACHE_TTL_SEC", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TOPIC", "verdicts")
	t.Setenv("PROBLEMS_DIR", "/srv/problems")

	cfg := NewConfig()
	if cfg.PostgresDSN != "postgres://u:p@db:5432/judge" || cfg.RedisAddr != "cache:6379" {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
	if cfg.ProblemCacheTTL != time.Minute || cfg.ProblemsDir != "/srv/problems" {
		t.Fatalf("unexpected cache config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %q", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "verdicts" {
		t.Fatalf("unexpected topic %q", cfg.KafkaTopic)
	}
}

func TestExecutionConfig_Custom(t *testing.T) {
	t.Setenv("TEST_TIMEOUT_MS", "500")
	t.Setenv("MAX_OUTPUT_BYTES", "4096")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("EXECUTION_BACKEND", "Docker")
	t.Setenv("SANDBOX_IMAGE", "judge-runtime:latest")
	t.Setenv("SANDBOX_MEMORY_KB", "131072")

	cfg := NewConfig()
	if cfg.TestTimeout != 500*time.Millisecond || cfg.MaxOutputBytes != 4096 || cfg.MaxWorkers != 3 {
		t.Fatalf("unexpected execution config: %+v", cfg)
	}
	if cfg.ExecutionBackend != constants.ExecutionBackendDocker || cfg.SandboxImage != "judge-runtime:latest" || cfg.SandboxMemoryKB != 131072 {
		t.Fatalf("unexpected sandbox config: %+v", cfg)
	}
}

func TestRabbitmqConfig_DefaultsAndCustom(t *testing.T) {
	cfg := NewConfig()
	expectedURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		constants.DefaultRabbitmqUser,
		constants.DefaultRabbitmqPassword,
		constants.DefaultRabbitmqHost,
		constants.DefaultRabbitmqPort)

	if cfg.RabbitMQURL != expectedURL {
		t.Fatalf("expected url %q, got %q", expectedURL, cfg.RabbitMQURL)
	}
	if cfg.PublishChanSize != constants.DefaultRabbitmqPublishChanSize {
		t.Fatalf("expected publish chan size %d, got %d", constants.DefaultRabbitmqPublishChanSize, cfg.PublishChanSize)
	}
	if cfg.ConsumeQueueName != constants.DefaultWorkerQueueName {
		t.Fatalf("expected default queue %q, got %q", constants.DefaultWorkerQueueName, cfg.ConsumeQueueName)
	}

	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("RABBITMQ_HOST", "rm-host")
	t.Setenv("RABBITMQ_PORT", "12345")
	t.Setenv("RABBITMQ_USER", "u1")
	t.Setenv("RABBITMQ_PASSWORD", "p1")
	t.Setenv("RABBITMQ_PUBLISH_CHAN_SIZE", "7")
	t.Setenv("WORKER_QUEUE_NAME", "custom_queue")

	cfg2 := NewConfig()
	if !cfg2.RabbitMQEnabled {
		t.Fatalf("expected rabbitmq to be enabled")
	}
	if cfg2.RabbitMQURL != "amqp://u1:p1@rm-host:12345/" {
		t.Fatalf("unexpected url %q", cfg2.RabbitMQURL)
	}
	if cfg2.PublishChanSize != 7 || cfg2.ConsumeQueueName != "custom_queue" {
		t.Fatalf("unexpected queue config: %+v", cfg2)
	}
}

func TestResolveCompilerPath(t *testing.T) {
	dir := t.TempDir()
	present := tests.WriteScript(t, dir, "g++", "exit 0")
	missing := filepath.Join(dir, "missing-g++")

	if got := ResolveCompilerPath("/explicit/g++", []string{present}); got != "/explicit/g++" {
		t.Fatalf("explicit path must win, got %q", got)
	}
	if got := ResolveCompilerPath("", []string{missing, dir, present}); got != present {
		t.Fatalf("expected first existing regular file %q, got %q", present, got)
	}

	t.Setenv("PATH", dir)
	if got := ResolveCompilerPath("", []string{missing}); got != present {
		t.Fatalf("expected PATH lookup to find %q, got %q", present, got)
	}

	t.Setenv("PATH", t.TempDir())
	if got := ResolveCompilerPath("", nil); got != constants.DefaultCompilerName {
		t.Fatalf("expected bare compiler name, got %q", got)
	}
}

func TestMain(m *testing.M) {
	// Keep a developer's .env out of the defaults under test.
	dir, err := os.MkdirTemp("", "config-test")
	if err == nil {
		_ = os.Chdir(dir)
	}
	code := m.Run()
	if dir != "" {
		_ = os.RemoveAll(dir)
	}
	os.Exit(code)
}

package constants

import (
	"fmt"
	"time"
)

// Queue message types.
const (
	QueueMessageTypeRun       = "run"
	QueueMessageTypeSubmit    = "submit"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
)

// Test case error strings surfaced to the submitter.
const (
	TestCaseMessageTimeOut      = "Time Limit Exceeded"
	TestCaseMessageRuntimeError = "Runtime Error"
	TestCaseMessageLaunchFailed = "Execution failed: %s"
	TestCaseMessageCancelled    = "Execution cancelled"
	TestCaseMessageTruncated    = "Output limit exceeded"
)

// Judge response messages.
const (
	JudgeMessageInvalidSubmission = "Submission is invalid: write your solution before running it"
	JudgeMessageCompilationError  = "Compilation error"
	JudgeMessageCompileTimeout    = "Compilation timed out"
	JudgeMessageAllPassed         = "All test cases passed"
	JudgeMessageSomeFailed        = "Some test cases failed"
	JudgeMessageHiddenFailed      = "Failed on a hidden test case"
	JudgeMessageVisibleFailed     = "Failed on test case %d"
	JudgeMessageAccepted          = "Accepted"
)

// Worker specific constants.
type WorkerStatus int

const (
	WorkerStatusIdle WorkerStatus = iota
	WorkerStatusBusy
)

func (ws WorkerStatus) String() string {
	switch ws {
	case WorkerStatusIdle:
		return "idle"
	case WorkerStatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

func (ws WorkerStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ws.String() + `"`), nil
}

func (ws *WorkerStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"idle"`:
		*ws = WorkerStatusIdle
	case `"busy"`:
		*ws = WorkerStatusBusy
	default:
		return fmt.Errorf("unknown worker status %s", data)
	}
	return nil
}

// Exit codes.
const (
	ExitCodeSuccess         = 0
	ExitCodeKilled          = 137
	ExitCodeLaunchFailed    = -1
	ExitCodeCommandNotFound = 127
)

// Configuration constants.
const (
	DefaultCompilerName            = "g++"
	DefaultCompileTimeoutMs        = 30000
	DefaultTestTimeoutMs           = 2000
	DefaultMaxOutputBytes          = 1 << 20
	DefaultMinSourceLength         = 20
	DefaultMaxWorkers              = 10
	DefaultExecutionBackend        = "local"
	DefaultHTTPAddr                = ":8080"
	DefaultProblemCacheTTLSec      = 300
	DefaultKafkaTopic              = "submission.judged"
	DefaultRabbitmqHost            = "localhost"
	DefaultRabbitmqUser            = "guest"
	DefaultRabbitmqPassword        = "guest"
	DefaultRabbitmqPort            = "5672"
	DefaultRabbitmqPublishChanSize = 100
	DefaultWorkerQueueName         = "judge_queue"
	DefaultSandboxImage            = "gcc:13"
	DefaultSandboxMemoryKB         = 256 * 1024
)

// Execution backends.
const (
	ExecutionBackendLocal  = "local"
	ExecutionBackendDocker = "docker"
)

// CompilerCandidates are probed in order when COMPILER_PATH is not set.
var CompilerCandidates = []string{
	"/usr/bin/g++",
	"/usr/local/bin/g++",
	"/opt/homebrew/bin/g++",
}

// Workspace file naming.
const (
	SourceFileExt    = ".cpp"
	ArtifactFileExt  = ".out"
	SourceFilePrefix = "submission-"
	LanguageCPP      = "cpp"
)

// DefaultStarterCode is the canonical template handed to users when a problem
// does not define its own.
const DefaultStarterCode = `#include <bits/stdc++.h>
using namespace std;

int main() {
    // Write your code here
    return 0;
}
`

// Docker execution constants.
const (
	SandboxWorkDir          = "/tmp"
	SandboxBinaryName       = "solution"
	SandboxUID              = 65534
	SandboxGID              = 65534
	SandboxUser             = "65534:65534"
	SandboxPidsLimit        = int64(16)
	SandboxCPUQuota         = int64(100_000)
	SandboxCPUPeriod        = int64(100_000)
	ContainerStopTimeout    = 1
	ContainerCleanupTimeout = 10 * time.Second
	ContainerOutputWait     = 500 * time.Millisecond
	ContainerNamePrefix     = "submission-"
)

// HTTP specific constants.
const (
	HTTPReadHeaderTimeout      = 10 * time.Second
	HTTPIdleTimeout            = 60 * time.Second
	HTTPShutdownTimeout        = 30 * time.Second
	MaxSourceBytes             = 1 << 20
	MaxProblemPackageBytes     = 64 << 20
	DefaultSubmissionListLimit = 20
	MaxSubmissionListLimit     = 100
)

// Postgres specific constants.
const PostgresConnMaxLifetime = 30 * time.Minute

// Kafka specific constants.
const (
	KafkaBatchTimeout   = 10 * time.Millisecond
	KafkaPublishTimeout = 5 * time.Second
)

// RabbitMQ specific constants.
const (
	RabbitMQReconnectTries   = 10
	RabbitMQReconnectBackoff = time.Second
	RabbitMQMaxPriority      = 3
	RabbitMQRequeuePriority  = 2
)

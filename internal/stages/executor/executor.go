package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/pkg/solution"
)

// RunOutput is the raw, unclassified result of one process lifecycle.
type RunOutput struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Signaled  bool
	TimedOut  bool
	Cancelled bool
	Truncated bool
	LaunchErr error
	Elapsed   time.Duration
}

// Runner launches the artifact once, feeds input followed by a single newline
// on stdin, closes stdin and waits for exit or for its timeout, whichever
// comes first. Implementations never return before the process is gone.
type Runner interface {
	RunTestCase(ctx context.Context, binaryPath, input, messageID string) RunOutput
}

type Executor interface {
	// ExecuteAll runs the artifact against every test case in order and
	// returns exactly one result per case. Passed is left for the verifier.
	ExecuteAll(
		ctx context.Context,
		binaryPath string,
		testCases []solution.TestCase,
		messageID string,
	) []solution.ExecutionResult
}

type executor struct {
	runner Runner
	logger *zap.SugaredLogger
}

func NewExecutor(runner Runner) Executor {
	return &executor{
		runner: runner,
		logger: logger.NewNamedLogger("executor"),
	}
}

func (e *executor) ExecuteAll(
	ctx context.Context,
	binaryPath string,
	testCases []solution.TestCase,
	messageID string,
) []solution.ExecutionResult {
	e.logger.Infof("Executing %d test cases [MsgID: %s]", len(testCases), messageID)

	results := make([]solution.ExecutionResult, len(testCases))
	for i, tc := range testCases {
		result := solution.ExecutionResult{
			Input:          tc.Input,
			ExpectedOutput: tc.SampleOutput(),
		}

		if ctx.Err() != nil {
			markCancelled(&result)
			results[i] = result
			continue
		}

		out := e.runner.RunTestCase(ctx, binaryPath, tc.Input, messageID)
		classify(&result, out)
		results[i] = result

		e.logger.Debugf("Test case %d finished with outcome %s in %dms [MsgID: %s]",
			i+1, result.Outcome, result.TimeMs, messageID)
	}

	return results
}

// classify is the single terminal path for a test case.
func classify(result *solution.ExecutionResult, out RunOutput) {
	result.TimeMs = out.Elapsed.Milliseconds()
	result.ExitCode = out.ExitCode

	switch {
	case out.Cancelled:
		markCancelled(result)
	case out.LaunchErr != nil:
		result.Outcome = solution.OutcomeLaunchFailed
		result.Error = fmt.Sprintf(constants.TestCaseMessageLaunchFailed, out.LaunchErr.Error())
		result.ExitCode = constants.ExitCodeLaunchFailed
	case out.TimedOut:
		result.Outcome = solution.OutcomeTimeLimitExceeded
		result.Error = constants.TestCaseMessageTimeOut
	default:
		result.ActualOutput = strings.TrimSpace(out.Stdout)
		result.Stderr = out.Stderr
		result.Truncated = out.Truncated
		result.Outcome = solution.OutcomeCompleted

		if out.Signaled || (out.ExitCode != constants.ExitCodeSuccess && strings.TrimSpace(out.Stderr) != "") {
			result.Outcome = solution.OutcomeRuntimeError
			result.Error = constants.TestCaseMessageRuntimeError
		} else if out.Truncated {
			result.Error = constants.TestCaseMessageTruncated
		}
	}
}

func markCancelled(result *solution.ExecutionResult) {
	result.Outcome = solution.OutcomeCancelled
	result.Error = constants.TestCaseMessageCancelled
	result.ActualOutput = ""
}

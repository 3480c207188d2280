package executor

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	"github.com/interview-prep/judge/utils"
)

// waitDelay bounds how long Wait keeps draining pipes held open by
// descendants after the process itself is gone.
const waitDelay = 200 * time.Millisecond

type localRunner struct {
	timeout        time.Duration
	maxOutputBytes int
	logger         *zap.SugaredLogger
}

// NewLocalRunner runs artifacts as direct child processes of the judge.
func NewLocalRunner(timeout time.Duration, maxOutputBytes int) Runner {
	if timeout <= 0 {
		timeout = time.Duration(constants.DefaultTestTimeoutMs) * time.Millisecond
	}
	return &localRunner{
		timeout:        timeout,
		maxOutputBytes: maxOutputBytes,
		logger:         logger.NewNamedLogger("local-runner"),
	}
}

func (r *localRunner) RunTestCase(ctx context.Context, binaryPath, input, messageID string) RunOutput {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binaryPath)
	cmd.Stdin = strings.NewReader(input + "\n")

	stdout := &utils.LimitedBuffer{Limit: r.maxOutputBytes}
	stderr := &utils.LimitedBuffer{Limit: r.maxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		r.logger.Warnf("Failed to launch %s: %s [MsgID: %s]", binaryPath, err, messageID)
		return RunOutput{LaunchErr: err}
	}

	waitErr := cmd.Wait()
	out := RunOutput{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated(),
		Elapsed:   time.Since(start),
	}

	state := cmd.ProcessState
	if state != nil {
		out.ExitCode = state.ExitCode()
	}
	exitedNormally := state != nil && state.Exited()

	// A process that exited on its own before the deadline was observed wins
	// over the timer, so each case resolves exactly once.
	if runCtx.Err() != nil && !exitedNormally {
		if ctx.Err() != nil {
			out.Cancelled = true
		} else {
			out.TimedOut = true
		}
		return out
	}

	if !exitedNormally && state != nil {
		out.Signaled = true
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		r.logger.Warnf("Unexpected wait error: %s [MsgID: %s]", waitErr, messageID)
	}

	return out
}

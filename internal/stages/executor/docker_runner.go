package executor

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/docker"
	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/utils"
)

var containerNameRegex = regexp.MustCompile("[^a-zA-Z0-9_.-]")

type DockerOptions struct {
	Image          string
	Timeout        time.Duration
	MaxOutputBytes int
	MemoryKB       int64
}

type dockerRunner struct {
	docker docker.DockerClient
	opts   DockerOptions
	logger *zap.SugaredLogger
}

// NewDockerRunner runs every test case in a fresh, network-less container
// with memory, pids and capability limits.
func NewDockerRunner(dCli docker.DockerClient, opts DockerOptions) Runner {
	if opts.Image == "" {
		opts.Image = constants.DefaultSandboxImage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(constants.DefaultTestTimeoutMs) * time.Millisecond
	}
	if opts.MemoryKB <= 0 {
		opts.MemoryKB = constants.DefaultSandboxMemoryKB
	}
	return &dockerRunner{
		docker: dCli,
		opts:   opts,
		logger: logger.NewNamedLogger("docker-runner"),
	}
}

func (d *dockerRunner) RunTestCase(ctx context.Context, binaryPath, input, messageID string) RunOutput {
	containerName := SanitizeContainerName(messageID + "-" + uuid.New().String()[:8])
	containerID, err := d.docker.CreateContainer(ctx, d.containerConfig(), d.hostConfig(), containerName)
	if err != nil {
		d.logger.Errorf("Failed to create container: %s [MsgID: %s]", err, messageID)
		return d.setupFailure(ctx, err)
	}

	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), constants.ContainerCleanupTimeout)
		defer cleanupCancel()
		if err := d.docker.ContainerRemove(cleanupCtx, containerID); err != nil {
			d.logger.Warnf("Failed to remove container %s: %s [MsgID: %s]", containerID, err, messageID)
		}
	}()

	archive, err := utils.CreateTarFromFile(
		binaryPath, constants.SandboxBinaryName, 0o755, constants.SandboxUID, constants.SandboxGID)
	if err != nil {
		return RunOutput{LaunchErr: err}
	}
	err = d.docker.CopyToContainer(ctx, containerID, constants.SandboxWorkDir, archive)
	archive.Close()
	if err != nil {
		d.logger.Errorf("Failed to copy artifact to container %s: %s [MsgID: %s]", containerID, err, messageID)
		return d.setupFailure(ctx, err)
	}

	hijack, err := d.docker.AttachContainer(ctx, containerID)
	if err != nil {
		return d.setupFailure(ctx, err)
	}
	defer hijack.Close()

	stdout := &utils.LimitedBuffer{Limit: d.opts.MaxOutputBytes}
	stderr := &utils.LimitedBuffer{Limit: d.opts.MaxOutputBytes}

	start := time.Now()
	if err := d.docker.StartContainer(ctx, containerID); err != nil {
		return d.setupFailure(ctx, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	go func() {
		if _, err := hijack.Conn.Write([]byte(input + "\n")); err != nil {
			d.logger.Debugf("Stdin write stopped: %s [MsgID: %s]", err, messageID)
		}
		_ = hijack.CloseWrite()
	}()

	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, _ = stdcopy.StdCopy(stdout, stderr, hijack.Reader)
	}()

	exitCode, waitErr := d.docker.WaitContainer(runCtx, containerID)
	elapsed := time.Since(start)

	if waitErr != nil {
		if runCtx.Err() == nil {
			return RunOutput{LaunchErr: fmt.Errorf("%w: %v", customErr.ErrContainerFailed, waitErr)}
		}

		killCtx, killCancel := context.WithTimeout(context.Background(), constants.ContainerCleanupTimeout)
		defer killCancel()
		if err := d.docker.ContainerKill(killCtx, containerID, "SIGKILL"); err != nil {
			d.logger.Warnf("Failed to kill container %s: %s [MsgID: %s]", containerID, err, messageID)
		}
		if ctx.Err() != nil {
			return RunOutput{Cancelled: true, Elapsed: elapsed}
		}
		d.logger.Infof("Container %s exceeded %s [MsgID: %s]", containerID, d.opts.Timeout, messageID)
		return RunOutput{TimedOut: true, Elapsed: elapsed}
	}

	select {
	case <-copyDone:
	case <-time.After(constants.ContainerOutputWait):
		d.logger.Warnf("Output stream of %s did not close in time [MsgID: %s]", containerID, messageID)
	}

	return RunOutput{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  int(exitCode),
		Signaled:  exitCode > 128,
		Truncated: stdout.Truncated(),
		Elapsed:   elapsed,
	}
}

func (d *dockerRunner) setupFailure(ctx context.Context, err error) RunOutput {
	if ctx.Err() != nil {
		return RunOutput{Cancelled: true}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = customErr.ErrContainerTimeout
	}
	return RunOutput{LaunchErr: fmt.Errorf("%w: %v", customErr.ErrContainerFailed, err)}
}

func (d *dockerRunner) containerConfig() *container.Config {
	stopTimeout := constants.ContainerStopTimeout

	return &container.Config{
		Image:           d.opts.Image,
		Cmd:             []string{path.Join(constants.SandboxWorkDir, constants.SandboxBinaryName)},
		WorkingDir:      constants.SandboxWorkDir,
		User:            constants.SandboxUser,
		OpenStdin:       true,
		StdinOnce:       true,
		AttachStdin:     true,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: true,
		StopTimeout:     &stopTimeout,
		StopSignal:      "SIGKILL",
	}
}

func (d *dockerRunner) hostConfig() *container.HostConfig {
	memoryBytes := d.opts.MemoryKB * 1024
	pidsLimit := constants.SandboxPidsLimit

	return &container.HostConfig{
		AutoRemove:  false,
		NetworkMode: container.NetworkMode("none"),
		Resources: container.Resources{
			Memory:     memoryBytes,
			MemorySwap: memoryBytes,
			PidsLimit:  &pidsLimit,
			CPUPeriod:  constants.SandboxCPUPeriod,
			CPUQuota:   constants.SandboxCPUQuota,
		},
		SecurityOpt:  []string{"no-new-privileges"},
		CgroupnsMode: container.CgroupnsModePrivate,
		IpcMode:      container.IpcMode("private"),
		CapDrop:      []string{"ALL"},
	}
}

func SanitizeContainerName(raw string) string {
	cleaned := containerNameRegex.ReplaceAllString(raw, "-")
	if cleaned == "" {
		cleaned = "untitled"
	}
	return constants.ContainerNamePrefix + cleaned
}

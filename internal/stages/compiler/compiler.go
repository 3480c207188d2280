package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interview-prep/judge/internal/logger"
	"github.com/interview-prep/judge/pkg/constants"
	customErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/utils"
)

// Artifact is a compiled submission living in the shared workspace directory.
// Whoever receives it owns it and must call Remove.
type Artifact struct {
	SourcePath string
	BinaryPath string
}

// Remove deletes the source file and the executable. Missing files are ignored.
func (a *Artifact) Remove() error {
	if a == nil {
		return nil
	}
	return errors.Join(
		utils.RemoveFileIfExists(a.SourcePath),
		utils.RemoveFileIfExists(a.BinaryPath),
	)
}

// CompilationError carries the compiler diagnostic exactly as it was printed.
type CompilationError struct {
	Diagnostic string
}

func (e *CompilationError) Error() string {
	return customErr.ErrCompilationFailed.Error()
}

func (e *CompilationError) Unwrap() error {
	return customErr.ErrCompilationFailed
}

type Compiler interface {
	// Compile writes source into the workspace and builds it. User code
	// problems come back as *CompilationError, a compiler that cannot be
	// launched as ErrToolchainUnavailable.
	Compile(ctx context.Context, source, messageID string) (*Artifact, error)
}

const compileWaitDelay = time.Second

type Options struct {
	CompilerPath string
	Flags        []string
	WorkspaceDir string
	Timeout      time.Duration
}

type compiler struct {
	compilerPath string
	flags        []string
	workspaceDir string
	timeout      time.Duration
	logger       *zap.SugaredLogger
}

func NewCompiler(opts Options) Compiler {
	if opts.CompilerPath == "" {
		opts.CompilerPath = constants.DefaultCompilerName
	}
	if opts.WorkspaceDir == "" {
		opts.WorkspaceDir = os.TempDir()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(constants.DefaultCompileTimeoutMs) * time.Millisecond
	}
	return &compiler{
		compilerPath: opts.CompilerPath,
		flags:        opts.Flags,
		workspaceDir: opts.WorkspaceDir,
		timeout:      opts.Timeout,
		logger:       logger.NewNamedLogger("cpp-compiler"),
	}
}

func (c *compiler) Compile(ctx context.Context, source, messageID string) (*Artifact, error) {
	artifact := c.newArtifact()

	c.logger.Infof("Writing source to %s [MsgID: %s]", artifact.SourcePath, messageID)
	if err := os.WriteFile(artifact.SourcePath, []byte(source), 0o600); err != nil {
		c.logger.Errorf("Could not write source file. %s [MsgID: %s]", err.Error(), messageID)
		if rmErr := artifact.Remove(); rmErr != nil {
			c.logger.Warnf("Failed to remove partial source file: %s [MsgID: %s]", rmErr, messageID)
		}
		return nil, fmt.Errorf("failed to write source file: %w", err)
	}

	compileCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Arguments go straight to the compiler as a vector, never through a shell.
	args := append([]string{artifact.SourcePath, "-o", artifact.BinaryPath}, c.flags...)
	cmd := exec.CommandContext(compileCtx, c.compilerPath, args...)

	cmd.WaitDelay = compileWaitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.logger.Infof("Running %s [MsgID: %s]", c.compilerPath, messageID)
	cmdErr := cmd.Run()
	if cmdErr == nil {
		c.logger.Infof("Compilation successful [MsgID: %s]", messageID)
		return artifact, nil
	}

	if err := artifact.Remove(); err != nil {
		c.logger.Warnf("Failed to remove compile leftovers: %s [MsgID: %s]", err, messageID)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("compilation aborted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(cmdErr, &exitErr) {
		c.logger.Errorf("Compiler %s could not be launched: %s [MsgID: %s]", c.compilerPath, cmdErr, messageID)
		return nil, fmt.Errorf("%w: %s: %v", customErr.ErrToolchainUnavailable, c.compilerPath, cmdErr)
	}

	if errors.Is(compileCtx.Err(), context.DeadlineExceeded) {
		c.logger.Infof("Compilation timed out after %s [MsgID: %s]", c.timeout, messageID)
		return nil, &CompilationError{Diagnostic: constants.JudgeMessageCompileTimeout}
	}

	c.logger.Infof("Compilation failed with exit code %d [MsgID: %s]", exitErr.ExitCode(), messageID)
	return nil, &CompilationError{Diagnostic: stderr.String()}
}

func (c *compiler) newArtifact() *Artifact {
	base := filepath.Join(c.workspaceDir, constants.SourceFilePrefix+uuid.New().String())
	return &Artifact{
		SourcePath: base + constants.SourceFileExt,
		BinaryPath: base + constants.ArtifactFileExt,
	}
}

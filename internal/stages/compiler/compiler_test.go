package compiler_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/interview-prep/judge/internal/stages/compiler"
	pkgErr "github.com/interview-prep/judge/pkg/errors"
	"github.com/interview-prep/judge/tests"
)

// fakeCompiler copies the source to the output path, or fails like a real
// compiler when the source contains the SYNTAX_ERROR marker.
const fakeCompiler = `if grep -q SYNTAX_ERROR "$1"; then
  echo "main.cpp:1:1: error: expected ';'" >&2
  exit 1
fi
cp "$1" "$3" && chmod +x "$3"`

func newFakeCompiler(t *testing.T, workspace string) Compiler {
	t.Helper()
	script := tests.WriteScript(t, t.TempDir(), "fake-gxx", fakeCompiler)
	return NewCompiler(Options{CompilerPath: script, WorkspaceDir: workspace, Timeout: 5 * time.Second})
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCompile_Success(t *testing.T) {
	workspace := t.TempDir()
	c := newFakeCompiler(t, workspace)

	artifact, err := c.Compile(context.Background(), "int main() { return 0; }", "msg-1")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if filepath.Dir(artifact.BinaryPath) != workspace {
		t.Fatalf("artifact outside workspace: %s", artifact.BinaryPath)
	}
	if !strings.HasSuffix(artifact.SourcePath, ".cpp") || !strings.HasSuffix(artifact.BinaryPath, ".out") {
		t.Fatalf("unexpected artifact names: %+v", artifact)
	}
	info, err := os.Stat(artifact.BinaryPath)
	if err != nil {
		t.Fatalf("binary missing: %v", err)
	}
	if info.Mode()&0o100 == 0 {
		t.Fatalf("binary is not executable: %v", info.Mode())
	}

	if err := artifact.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if left := listDir(t, workspace); len(left) != 0 {
		t.Fatalf("workspace not cleaned: %v", left)
	}
}

func TestCompile_UniqueArtifacts(t *testing.T) {
	c := newFakeCompiler(t, t.TempDir())

	a, err := c.Compile(context.Background(), "int main() { return 0; }", "a")
	if err != nil {
		t.Fatalf("compile a: %v", err)
	}
	defer a.Remove()
	b, err := c.Compile(context.Background(), "int main() { return 0; }", "b")
	if err != nil {
		t.Fatalf("compile b: %v", err)
	}
	defer b.Remove()

	if a.BinaryPath == b.BinaryPath {
		t.Fatalf("two compilations share %s", a.BinaryPath)
	}
}

func TestCompile_Diagnostic(t *testing.T) {
	workspace := t.TempDir()
	c := newFakeCompiler(t, workspace)

	artifact, err := c.Compile(context.Background(), "int main() { SYNTAX_ERROR }", "msg-2")
	if artifact != nil {
		t.Fatalf("expected no artifact, got %+v", artifact)
	}

	var compErr *CompilationError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompilationError, got %v", err)
	}
	if !errors.Is(err, pkgErr.ErrCompilationFailed) {
		t.Fatalf("expected ErrCompilationFailed in chain, got %v", err)
	}
	if compErr.Diagnostic != "main.cpp:1:1: error: expected ';'\n" {
		t.Fatalf("diagnostic not passed through verbatim: %q", compErr.Diagnostic)
	}
	if left := listDir(t, workspace); len(left) != 0 {
		t.Fatalf("source left behind after failure: %v", left)
	}
}

func TestCompile_ArgumentVector(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := tests.WriteScript(t, dir, "record-gxx", `printf '%s\n' "$@" > `+argsFile+`
cp "$1" "$3"`)

	workspace := t.TempDir()
	c := NewCompiler(Options{CompilerPath: script, WorkspaceDir: workspace, Flags: []string{"-O2", "-std=c++17"}})

	artifact, err := c.Compile(context.Background(), "int main() { return 0; }", "msg-3")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer artifact.Remove()

	raw, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	got := strings.Split(strings.TrimSpace(string(raw)), "\n")
	want := []string{artifact.SourcePath, "-o", artifact.BinaryPath, "-O2", "-std=c++17"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("argv = %v, want %v", got, want)
	}
}

func TestCompile_ToolchainUnavailable(t *testing.T) {
	workspace := t.TempDir()
	c := NewCompiler(Options{CompilerPath: filepath.Join(t.TempDir(), "no-such-gxx"), WorkspaceDir: workspace})

	_, err := c.Compile(context.Background(), "int main() { return 0; }", "msg-4")
	if !errors.Is(err, pkgErr.ErrToolchainUnavailable) {
		t.Fatalf("expected ErrToolchainUnavailable, got %v", err)
	}
	var compErr *CompilationError
	if errors.As(err, &compErr) {
		t.Fatalf("missing toolchain must not look like a user error")
	}
	if left := listDir(t, workspace); len(left) != 0 {
		t.Fatalf("workspace not cleaned: %v", left)
	}
}

func TestCompile_SourceWriteFailure(t *testing.T) {
	parent := t.TempDir()
	workspace := tests.WriteFile(t, parent, "not-a-dir", "")
	scriptDir := t.TempDir()
	marker := filepath.Join(scriptDir, "launched")
	script := tests.WriteScript(t, scriptDir, "gxx", "touch "+marker)
	c := NewCompiler(Options{CompilerPath: script, WorkspaceDir: workspace})

	artifact, err := c.Compile(context.Background(), "int main() { return 0; }", "msg-7")
	if err == nil || artifact != nil {
		t.Fatalf("expected write failure, got artifact %+v err %v", artifact, err)
	}
	var compErr *CompilationError
	if errors.As(err, &compErr) || errors.Is(err, pkgErr.ErrToolchainUnavailable) {
		t.Fatalf("write failure reported as %v", err)
	}
	if _, statErr := os.Stat(marker); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("compiler must not run when the source cannot be written")
	}
	if left := listDir(t, parent); len(left) != 1 || left[0] != "not-a-dir" {
		t.Fatalf("unexpected leftovers: %v", left)
	}
}

func TestCompile_Timeout(t *testing.T) {
	script := tests.WriteScript(t, t.TempDir(), "slow-gxx", "exec sleep 5")
	c := NewCompiler(Options{CompilerPath: script, WorkspaceDir: t.TempDir(), Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := c.Compile(context.Background(), "int main() { return 0; }", "msg-5")
	if time.Since(start) > 3*time.Second {
		t.Fatalf("compile was not interrupted")
	}

	var compErr *CompilationError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompilationError, got %v", err)
	}
	if compErr.Diagnostic != "Compilation timed out" {
		t.Fatalf("unexpected diagnostic %q", compErr.Diagnostic)
	}
}

func TestCompile_CancelledContext(t *testing.T) {
	c := newFakeCompiler(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compile(ctx, "int main() { return 0; }", "msg-6")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCompile_RealToolchain(t *testing.T) {
	gxx, err := exec.LookPath("g++")
	if err != nil {
		t.Skip("g++ not installed")
	}
	c := NewCompiler(Options{CompilerPath: gxx, WorkspaceDir: t.TempDir()})

	artifact, err := c.Compile(context.Background(), `#include <iostream>
int main() { int a, b; std::cin >> a >> b; std::cout << a + b << std::endl; }`, "msg-7")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer artifact.Remove()

	cmd := exec.Command(artifact.BinaryPath)
	cmd.Stdin = strings.NewReader("2 3\n")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "5" {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = c.Compile(context.Background(), "int main() { return }", "msg-8")
	var compErr *CompilationError
	if !errors.As(err, &compErr) || !strings.Contains(compErr.Diagnostic, "error") {
		t.Fatalf("expected compiler diagnostic, got %v", err)
	}
}

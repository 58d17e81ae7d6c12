package bashx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
)

// Result is the normalized outcome every backend reports: the exit
// code and the captured output texts. Exit code 0 means success.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor executes a canonical command string.
//
// A non-zero exit code of a command that ran is NOT an error: it comes
// back in Result.ExitCode. An error return means the backend could not
// dispatch the command at all (parse, resolution, start, or connection
// failure) and wraps ErrDispatch.
type Executor interface {
	Execute(ctx context.Context, command string) (Result, error)
}

// SpawnExecutor runs the command through a local shell, capturing
// stdout and stderr separately. This is the default backend and works
// without any session setup.
type SpawnExecutor struct {
	// ShellPath and ShellArgs default to "sh" and ["-c"].
	ShellPath string
	ShellArgs []string
}

var _ Executor = (*SpawnExecutor)(nil)

func (e *SpawnExecutor) Execute(ctx context.Context, command string) (Result, error) {
	shell := e.ShellPath
	if shell == "" {
		shell = "sh"
	}
	args := e.ShellArgs
	if len(args) == 0 {
		args = []string{"-c"}
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, args...)
	argv = append(argv, command)

	var stdout, stderr bytes.Buffer
	proc := osexec.Command(shell, argv...)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	code, err := runProc(ctx, proc)
	return Result{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// SystemExecutor fires the command at the OS shell the way os.system
// does: stdio is inherited from the process, so nothing is captured.
//
// Its output-capture guarantee is weaker than the other backends':
// Result.Stdout and Result.Stderr are always empty and only the exit
// code is meaningful. Treat it as an optional parity backend.
type SystemExecutor struct{}

var _ Executor = (*SystemExecutor)(nil)

func (e *SystemExecutor) Execute(ctx context.Context, command string) (Result, error) {
	proc := osexec.Command("sh", "-c", command)
	proc.Stdin = os.Stdin
	proc.Stdout = os.Stdout
	proc.Stderr = os.Stderr

	code, err := runProc(ctx, proc)
	return Result{ExitCode: code}, err
}

// CommandExecutor splits the command into a program name and
// arguments, resolves the program on PATH, and invokes it directly
// (no shell). An unresolvable program is a dispatch failure.
type CommandExecutor struct{}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) Execute(ctx context.Context, command string) (Result, error) {
	path, args, err := resolveArgv(command)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	var stdout, stderr bytes.Buffer
	proc := osexec.Command(path, args...)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	code, err := runProc(ctx, proc)
	return Result{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// ShellExecutor uses the same token-splitting discipline as
// CommandExecutor but hands the argv to a shell session instead of
// exec'ing it directly, so the invocation goes through one more local
// command abstraction.
type ShellExecutor struct{}

var _ Executor = (*ShellExecutor)(nil)

func (e *ShellExecutor) Execute(ctx context.Context, command string) (Result, error) {
	path, args, err := resolveArgv(command)
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	var stdout, stderr bytes.Buffer
	shellArgv := append([]string{"-c", `exec "$0" "$@"`, path}, args...)
	proc := osexec.Command("sh", shellArgv...)
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	code, err := runProc(ctx, proc)
	return Result{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// resolveArgv splits the command into tokens and resolves the first
// one on PATH. Both a parse failure and an unresolvable program are
// dispatch failures.
func resolveArgv(command string) (path string, args []string, err error) {
	parts, err := cmdSlice(command)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w: %v", ErrDispatch, ErrParseCommand, err)
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("%w: %w: empty command", ErrDispatch, ErrParseCommand)
	}

	path, err = osexec.LookPath(parts[0])
	if err != nil {
		return "", nil, fmt.Errorf("%w: resolve %q: %v", ErrDispatch, parts[0], err)
	}
	return path, parts[1:], nil
}

// runProc starts the process and waits for it to finish or the context
// to be done. The exit code of a process that ran is returned as data;
// only start failures and context cancellation come back as errors.
func runProc(ctx context.Context, proc *osexec.Cmd) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	if err := proc.Start(); err != nil {
		return -1, fmt.Errorf("%w: start %s: %v", ErrDispatch, proc.Path, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- proc.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = proc.Process.Kill()
		<-done
		return -1, ctx.Err()
	case err := <-done:
		var exitErr *osexec.ExitError
		switch {
		case err == nil:
			return 0, nil
		case errors.As(err, &exitErr):
			return exitErr.ExitCode(), nil
		default:
			return -1, fmt.Errorf("%w: wait %s: %v", ErrDispatch, proc.Path, err)
		}
	}
}

// errors that Executor.Execute may return.
var (
	// ErrDispatch marks a backend that failed to invoke the command at
	// all. It is never suppressed by skip-err handling.
	ErrDispatch = errors.New("cannot dispatch command")
	// ErrParseCommand reports a command string the token splitter
	// rejected.
	ErrParseCommand = errors.New("failed to parse command")
)

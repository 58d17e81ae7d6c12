package bashx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ExecFunc is the shape the execution logger decorates: run a
// canonical command, report (exit code, output, dispatch error).
type ExecFunc func(ctx context.Context, command string) (int, string, error)

// LogExecution wraps fn with execution logging:
//
//   - before the call, a trace-level line with the command text;
//   - after the call, a result-level line with the output and exit
//     code;
//   - on non-zero exit, an additional error-level line.
//
// The returned function also rewrites the output that propagates
// upward: trimmed output, a single space, the exit-code prefix, the
// code, and a trailing newline. Downstream consumers see exit-code
// annotated text, never raw backend output.
//
// Multi-line commands get Config.NumTabs tab characters appended to
// each prefix so they stand out from single-line ones. Verbosity is
// controlled only by the global sink and level names; there is no
// per-call suppression.
func LogExecution(fn ExecFunc) ExecFunc {
	return logExecution(fn, true)
}

func logExecution(fn ExecFunc, trace bool) ExecFunc {
	return func(ctx context.Context, command string) (int, string, error) {
		cfg := Current

		if trace {
			Log.Log(cfg.TraceLevel, markPrefix(cfg, cfg.TracePrefix, command)+command)
		}

		code, output, err := fn(ctx, command)
		if err != nil {
			Log.Log(cfg.ErrorLevel, markPrefix(cfg, cfg.ErrorPrefix, command)+"dispatch failed: "+err.Error())
			return code, "", err
		}

		annotated := strings.TrimSpace(output) + " " + cfg.ExitCodePrefix + strconv.Itoa(code) + "\n"
		Log.Log(cfg.ResultLevel, markPrefix(cfg, cfg.ResultPrefix, command)+annotated)

		if code != 0 {
			Log.Log(cfg.ErrorLevel,
				markPrefix(cfg, cfg.ErrorPrefix, command)+"command failed with exit code "+strconv.Itoa(code))
		}
		return code, annotated, nil
	}
}

// markPrefix appends the multi-line continuation marker to the prefix
// when the command text spans multiple lines.
func markPrefix(cfg *Config, prefix, command string) string {
	if cfg.MarkMultiline && strings.Contains(command, "\n") {
		return prefix + strings.Repeat("\t", cfg.NumTabs)
	}
	return prefix
}

// ExecOptions control a single ExecCmd call. The zero value means:
// configured default backend, trace on, failures raised.
type ExecOptions struct {
	// Backend overrides Current.Backend for this call.
	Backend Backend
	// SkipErr suppresses command failures: they are logged at the
	// error level and reported as (1, "") instead of an error.
	// Dispatch failures are never suppressed.
	SkipErr bool
	// NoTrace skips the pre-execution trace line. Result and error
	// lines are always emitted.
	NoTrace bool
	// Remote overrides Current.Remote for this call.
	Remote *RemoteConfig
}

// ExecCmd normalizes cmd, dispatches it to the selected backend
// through the execution logger, and returns the exit code and the
// exit-code-annotated output.
//
// A command that ran and exited non-zero yields an *ExitError (nil
// when opts.SkipErr). A backend that could not be invoked at all
// yields an error wrapping ErrDispatch, always.
func ExecCmd(ctx context.Context, cmd Command, opts ExecOptions) (int, string, error) {
	cfg := Current

	backend := opts.Backend
	if backend == backendUnset {
		backend = cfg.Backend
	}
	if backend == backendUnset {
		backend = BackendSpawn
	}
	remote := opts.Remote
	if remote == nil {
		remote = cfg.Remote
	}

	canonical := cmd.Normalize()

	executor, err := newExecutor(backend, remote)
	if err != nil {
		return -1, "", fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	run := logExecution(func(ctx context.Context, command string) (int, string, error) {
		result, err := executor.Execute(ctx, command)
		if err != nil {
			return result.ExitCode, "", err
		}
		return result.ExitCode, result.Stdout, nil
	}, !opts.NoTrace)

	code, annotated, err := run(ctx, canonical)
	if err != nil {
		return code, "", err
	}

	if code != 0 {
		if opts.SkipErr {
			Log.Log(cfg.ErrorLevel, cfg.ErrorPrefix+"command failed (suppressed): "+canonical)
			return 1, "", nil
		}
		return code, annotated, &ExitError{Code: code, Command: canonical}
	}
	return code, annotated, nil
}

// Bash runs a free-text command (possibly multi-line) with the
// configured default backend.
//
//	code, out, err := bashx.Bash("echo Hello, World!", false)
//	// code == 0, out == "Hello, World! EXIT CODE: 0\n"
//
// With skipErr, a failing command is logged and reported as (1, "")
// instead of an error.
func Bash(command string, skipErr bool) (int, string, error) {
	return ExecCmd(context.Background(), Command{Text: command}, ExecOptions{SkipErr: skipErr})
}

// BashArgs is Bash for a command given as a token list.
func BashArgs(args []string, skipErr bool) (int, string, error) {
	return ExecCmd(context.Background(), Command{Args: args}, ExecOptions{SkipErr: skipErr})
}

// ExitError reports a command that ran and exited non-zero. It carries
// the exit code and the canonical command text.
type ExitError struct {
	Code    int
	Command string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %s", e.Code, e.Command)
}

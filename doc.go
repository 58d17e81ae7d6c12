// Package bashx is a facade for running shell commands through
// interchangeable execution backends: a shell spawn (the default), an
// os.system-style fire-and-forget call, two argv-splitting local
// runners, and a remote SSH session.
//
// The key pieces are:
//   - Command: a command given as free text (possibly multi-line) or as
//     a token list, normalized to one canonical string.
//   - Backend: an enum naming the execution mechanism.
//   - Executor: an interface with one implementation per backend.
//   - LogExecution: a decorator that wraps any execution function with
//     trace/result/error logging and annotates the returned output with
//     the exit code.
//   - Bash / ExecCmd: the public entry points.
//
// Configuration is process-wide (see Config and Current) and is meant
// to be mutated serially, e.g. between test cases. It is not
// synchronized; do not reconfigure while calls are in flight.
//
// Everything is designed to be friendly to marshal and unmarshal
// to/from YAML or other formats. Thus, basically all types are created
// with struct literals.
package bashx

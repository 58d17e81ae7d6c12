package bashx

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names an execution mechanism. The set is fixed; adding a
// backend is a code change (a new Executor plus a case in newExecutor).
type Backend int

const (
	// backendUnset makes the zero value mean "use the configured
	// default" in ExecOptions.
	backendUnset Backend = iota

	// BackendSpawn runs the command through `sh -c`, capturing stdout
	// and stderr. The default; needs no setup.
	BackendSpawn
	// BackendSystem fires the command at the OS shell with inherited
	// stdio. Exit code only, no captured output.
	BackendSystem
	// BackendCommand resolves the first token on PATH and invokes it
	// directly with the remaining tokens.
	BackendCommand
	// BackendShell resolves the first token and invokes it through a
	// shell session (`sh -c 'exec "$0" "$@"' ...`).
	BackendShell
	// BackendRemote runs the command on a remote host over SSH.
	BackendRemote
)

var backendNames = map[Backend]string{
	BackendSpawn:   "spawn",
	BackendSystem:  "system",
	BackendCommand: "command",
	BackendShell:   "shell",
	BackendRemote:  "remote",
}

func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// ParseBackend maps a backend name ("spawn", "system", "command",
// "shell", "remote") to its Backend value.
func ParseBackend(name string) (Backend, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for b, n := range backendNames {
		if n == want {
			return b, nil
		}
	}
	return backendUnset, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// MarshalText implements encoding.TextMarshaler so Backend round-trips
// through YAML.
func (b Backend) MarshalText() ([]byte, error) {
	name, ok := backendNames[b]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(b))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler (yaml.v3 ignores the text
// interfaces).
func (b Backend) MarshalYAML() (interface{}, error) {
	name, ok := backendNames[b]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(b))
	}
	return name, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Backend) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	return b.UnmarshalText([]byte(name))
}

// newExecutor returns the Executor for the given backend. remote may
// be nil; the remote backend then falls back to DefaultRemoteConfig.
func newExecutor(b Backend, remote *RemoteConfig) (Executor, error) {
	switch b {
	case BackendSpawn:
		return &SpawnExecutor{}, nil
	case BackendSystem:
		return &SystemExecutor{}, nil
	case BackendCommand:
		return &CommandExecutor{}, nil
	case BackendShell:
		return &ShellExecutor{}, nil
	case BackendRemote:
		if remote == nil {
			remote = DefaultRemoteConfig()
		}
		return &RemoteExecutor{Config: remote}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, b)
	}
}

// ErrUnknownBackend reports a backend name or value outside the fixed
// set.
var ErrUnknownBackend = fmt.Errorf("unknown backend")

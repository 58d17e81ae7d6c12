package bashx

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// AppFs is the filesystem used for reading configuration files.
// Tests swap it for an afero.MemMapFs.
var AppFs afero.Fs = afero.NewOsFs()

// Config holds the process-wide settings of the facade: the default
// backend, the log level used for each event class, the textual
// prefixes of the log lines, and the multi-line marker options.
//
// Current is read by every call. Mutation is expected to be serial
// (tests swap the backend between cases); there is no locking, and
// reconfiguring while calls are in flight is a data race the caller
// owns.
type Config struct {
	// Backend is the default execution backend. Zero value means
	// BackendSpawn.
	Backend Backend `yaml:"backend"`
	// Remote configures the remote backend. Nil means localhost:22
	// with default auth (see RemoteConfig).
	Remote *RemoteConfig `yaml:"remote"`

	// Sink names the sink implementation for SelectSink:
	// "slog" (default) or "basic".
	Sink string `yaml:"sink"`
	// LogLevel is the sink threshold, by level name.
	LogLevel string `yaml:"log_level"`

	// Levels per event class.
	TraceLevel  string `yaml:"trace_level"`
	ResultLevel string `yaml:"result_level"`
	ErrorLevel  string `yaml:"error_level"`

	// Prefixes per event class.
	TracePrefix    string `yaml:"trace_prefix"`
	ResultPrefix   string `yaml:"result_prefix"`
	ErrorPrefix    string `yaml:"error_prefix"`
	ExitCodePrefix string `yaml:"exit_code_prefix"`

	// MarkMultiline appends NumTabs tab characters to the prefix of
	// log lines whose command text spans multiple lines.
	MarkMultiline bool `yaml:"mark_multiline"`
	NumTabs       int  `yaml:"num_tabs"`
}

// Current is the configuration used by Bash and ExecCmd.
var Current = DefaultConfig()

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:        BackendSpawn,
		Sink:           "slog",
		LogLevel:       LevelTrace,
		TraceLevel:     LevelTrace,
		ResultLevel:    LevelDebug,
		ErrorLevel:     LevelError,
		TracePrefix:    "> ",
		ResultPrefix:   ": ",
		ErrorPrefix:    "ERROR: ",
		ExitCodePrefix: "EXIT CODE: ",
		MarkMultiline:  true,
		NumTabs:        1,
	}
}

// LoadConfig reads a YAML config file from AppFs. Missing keys keep
// their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := afero.ReadFile(AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.NumTabs < 0 {
		cfg.NumTabs = 0
	}
	return cfg, nil
}

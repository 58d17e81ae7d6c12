package bashx

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// RemoteConfig describes the SSH target of the remote backend.
//
// It wraps what ssh.ClientConfig needs plus the address, so it can be
// bound from the YAML config file.
type RemoteConfig struct {
	// Addr is "host" or "host:port"; a missing port means 22.
	// Empty means localhost.
	Addr string `yaml:"addr"`
	// User to authenticate as. Empty means the current OS user.
	User string `yaml:"user"`
	// Auth lists the authentication methods to try.
	Auth []RemoteAuth `yaml:"auth"`
	// TimeoutSeconds bounds the TCP connect. Zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// KeepAliveSeconds is the keep-alive interval of the
	// connection-reusing remote executor. Zero means 15s.
	KeepAliveSeconds int `yaml:"keep_alive_seconds"`
	// HostKeyCheck configures host key verification. Nil means the
	// default known_hosts files.
	HostKeyCheck *HostKeyCheck `yaml:"host_key_check"`
}

// DefaultRemoteConfig targets localhost:22 as the current user with
// default known_hosts checking, mirroring the "localhost unless a host
// is supplied" contract of the remote backend.
func DefaultRemoteConfig() *RemoteConfig {
	return &RemoteConfig{Addr: "localhost:22"}
}

// addr returns Addr with defaults applied.
func (c *RemoteConfig) addr() string {
	a := c.Addr
	if a == "" {
		a = "localhost"
	}
	if _, _, err := net.SplitHostPort(a); err != nil {
		a = net.JoinHostPort(a, "22")
	}
	return a
}

// username returns User, falling back to the current OS user.
func (c *RemoteConfig) username() string {
	if c.User != "" {
		return c.User
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

func (c *RemoteConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *RemoteConfig) keepAliveInterval() time.Duration {
	if c.KeepAliveSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.KeepAliveSeconds) * time.Second
}

// RemoteAuth wraps one ssh.AuthMethod so it can be bound from a
// configuration file. Set exactly one of Password, PrivateKey, or
// PrivateKeyPath.
type RemoteAuth struct {
	Password string `yaml:"password"`
	// PrivateKey is a PEM-encoded private key.
	PrivateKey string `yaml:"private_key"`
	// PrivateKeyPath points to a PEM-encoded private key file.
	PrivateKeyPath string `yaml:"private_key_path"`
}

// method builds the ssh.AuthMethod described by the struct.
func (a RemoteAuth) method() (ssh.AuthMethod, error) {
	set := 0
	for _, v := range []string{a.Password, a.PrivateKey, a.PrivateKeyPath} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, ErrRemoteAuthMutex
	}

	if a.Password != "" {
		return ssh.Password(a.Password), nil
	}

	pem := a.PrivateKey
	if a.PrivateKeyPath != "" {
		key, err := os.ReadFile(a.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		pem = string(key)
	}
	pem = strings.TrimSpace(pem)
	if pem == "" {
		return nil, ErrRemoteAuthEmptyKey
	}

	signer, err := ssh.ParsePrivateKey([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return ssh.PublicKeys(signer), nil
}

// RemoteAuth errors.
var (
	ErrRemoteAuthMutex    = fmt.Errorf("exactly one of Password, PrivateKey, PrivateKeyPath must be set")
	ErrRemoteAuthEmptyKey = fmt.Errorf("private key is empty")
)

// HostKeyCheck configures host key verification.
//
// The first non-empty field wins: FixedHostKey > KnownHostsFiles >
// InsecureIgnore. A nil/zero config uses the default known_hosts files
// and denies everything when none exist.
type HostKeyCheck struct {
	// FixedHostKey is an "ssh-ed25519 ..." line as printed by
	// `ssh-keyscan <host>` (without the address column).
	FixedHostKey string `yaml:"fixed_host_key"`
	// KnownHostsFiles lists known_hosts paths to check against.
	KnownHostsFiles []string `yaml:"known_hosts_files"`
	// InsecureIgnore disables host key checking. Do not use it in
	// production.
	InsecureIgnore bool `yaml:"insecure_ignore"`
}

// hostKeyCallback builds the ssh.HostKeyCallback for the config.
// A free function rather than a method so nil configs work.
func hostKeyCallback(check *HostKeyCheck) (ssh.HostKeyCallback, error) {
	if check == nil {
		return defaultKnownHostsCallback()
	}

	if check.FixedHostKey != "" {
		publicKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(check.FixedHostKey)))
		if err != nil {
			return nil, err
		}
		return ssh.FixedHostKey(publicKey), nil
	}

	if len(check.KnownHostsFiles) != 0 {
		return knownhosts.New(check.KnownHostsFiles...)
	}

	if check.InsecureIgnore {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	return defaultKnownHostsCallback()
}

// defaultKnownHostsCallback checks against the known_hosts files that
// exist on this machine, or denies all host keys when there are none.
func defaultKnownHostsCallback() (ssh.HostKeyCallback, error) {
	paths := existingKnownHostsPaths()
	if len(paths) == 0 {
		return denyAllHostKeys("no known_hosts file found at ~/.ssh/known_hosts or /etc/ssh/ssh_known_hosts"), nil
	}
	return knownhosts.New(paths...)
}

func existingKnownHostsPaths() []string {
	var files []string

	if runtime.GOOS != "windows" {
		files = append(files,
			"/etc/ssh/ssh_known_hosts",
			"/etc/ssh/ssh_known_hosts2",
		)
	}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files,
			filepath.Join(home, ".ssh", "known_hosts"),
			filepath.Join(home, ".ssh", "known_hosts2"),
		)
	}

	var existing []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	return existing
}

func denyAllHostKeys(msg string) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		return fmt.Errorf("ssh: all host keys are denied: %s", msg)
	}
}

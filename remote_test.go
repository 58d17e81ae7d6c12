package bashx

import (
	"context"
	"errors"
	"testing"

	"bashx/internal/testsshd"
)

// startTestSshd starts an in-process SSH server and returns a
// RemoteConfig pointing at it.
func startTestSshd(t *testing.T) *RemoteConfig {
	t.Helper()

	srv, err := testsshd.New(nil)
	if err != nil {
		t.Fatalf("failed to start test sshd: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	return &RemoteConfig{
		Addr: srv.Addr(),
		User: "testuser",
		Auth: []RemoteAuth{{Password: "test"}},
		HostKeyCheck: &HostKeyCheck{
			InsecureIgnore: true, // throwaway host key
		},
	}
}

func TestRemoteExecutor_Execute(t *testing.T) {
	cfg := startTestSshd(t)
	e := &RemoteExecutor{Config: cfg}

	got, err := e.Execute(context.Background(), "echo Hello, World!")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", got.ExitCode)
	}
	if got.Stdout != "Hello, World!\n" {
		t.Errorf("Stdout = %q, want %q", got.Stdout, "Hello, World!\n")
	}
}

func TestRemoteExecutor_NonZeroExit(t *testing.T) {
	cfg := startTestSshd(t)
	e := &RemoteExecutor{Config: cfg}

	got, err := e.Execute(context.Background(), "exit 7")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", got.ExitCode)
	}
}

func TestRemoteExecutor_DialFailure(t *testing.T) {
	e := &RemoteExecutor{Config: &RemoteConfig{
		Addr:         "127.0.0.1:1",
		User:         "nobody",
		Auth:         []RemoteAuth{{Password: "x"}},
		HostKeyCheck: &HostKeyCheck{InsecureIgnore: true},
	}}

	_, err := e.Execute(context.Background(), "echo hello")
	if !errors.Is(err, ErrDispatch) {
		t.Errorf("Execute() error = %v, want wrapping ErrDispatch", err)
	}
}

func TestRemoteExecutor_BadAuth(t *testing.T) {
	cfg := startTestSshd(t)
	cfg.Auth = []RemoteAuth{{Password: "wrong"}}
	e := &RemoteExecutor{Config: cfg}

	_, err := e.Execute(context.Background(), "echo hello")
	if !errors.Is(err, ErrDispatch) {
		t.Errorf("Execute() error = %v, want wrapping ErrDispatch", err)
	}
}

func TestSharedRemoteExecutor_ReusesConnection(t *testing.T) {
	cfg := startTestSshd(t)
	e := &SharedRemoteExecutor{Config: cfg}
	defer func() { _ = e.Close() }()

	for i := 0; i < 3; i++ {
		got, err := e.Execute(context.Background(), "echo again")
		if err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
		if got.ExitCode != 0 || got.Stdout != "again\n" {
			t.Errorf("Execute() #%d = %+v", i, got)
		}
	}

	// Close is idempotent; a later Execute dials a fresh connection.
	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if got, err := e.Execute(context.Background(), "echo reopened"); err != nil || got.Stdout != "reopened\n" {
		t.Errorf("Execute() after Close = %+v, %v", got, err)
	}
}

func TestExecCmd_RemoteBackend(t *testing.T) {
	swapConfig(t)
	cfg := startTestSshd(t)

	code, out, err := ExecCmd(context.Background(),
		Command{Text: "echo Hello, World!"},
		ExecOptions{Backend: BackendRemote, Remote: cfg})
	if err != nil {
		t.Fatalf("ExecCmd() error = %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if out != "Hello, World! EXIT CODE: 0\n" {
		t.Errorf("out = %q, want %q", out, "Hello, World! EXIT CODE: 0\n")
	}
}

package testsshd

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/crypto/ssh"
)

func dialTestServer(t *testing.T, srv *Server, user, pass string) *ssh.Client {
	t.Helper()

	client, err := ssh.Dial("tcp", srv.Addr(), &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestServer_RunCommand(t *testing.T) {
	srv, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	client := dialTestServer(t, srv, "testuser", "test")

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer session.Close()

	var stdout bytes.Buffer
	session.Stdout = &stdout
	if err := session.Run("echo hello"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout.String() != "hello\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "hello\n")
	}
}

func TestServer_ExitStatus(t *testing.T) {
	srv, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	client := dialTestServer(t, srv, "testuser", "test")

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	defer session.Close()

	err = session.Run("exit 42")
	var exitErr *ssh.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ssh.ExitError", err)
	}
	if exitErr.ExitStatus() != 42 {
		t.Errorf("ExitStatus() = %d, want 42", exitErr.ExitStatus())
	}
}

func TestServer_RejectsBadPassword(t *testing.T) {
	srv, err := New(&Config{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	_, err = ssh.Dial("tcp", srv.Addr(), &ssh.ClientConfig{
		User:            "alice",
		Auth:            []ssh.AuthMethod{ssh.Password("wrong")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err == nil {
		t.Fatal("Dial() with a bad password should fail")
	}
}

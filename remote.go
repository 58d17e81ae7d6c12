package bashx

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// RemoteExecutor runs the command on a remote host over SSH. It dials
// a fresh connection per call and closes it when the command finishes.
// For connection reuse across calls, see SharedRemoteExecutor.
//
// Dial and session failures are dispatch failures; the remote exit
// status of a command that ran comes back in Result.ExitCode.
type RemoteExecutor struct {
	Config *RemoteConfig
}

var _ Executor = (*RemoteExecutor)(nil)

func (e *RemoteExecutor) Execute(ctx context.Context, command string) (Result, error) {
	cfg := e.Config
	if cfg == nil {
		cfg = DefaultRemoteConfig()
	}

	client, err := dialRemote(cfg)
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	defer func() {
		_ = client.Close()
	}()

	return execOnClient(ctx, client, command)
}

// dialRemote builds the ssh.ClientConfig from cfg and dials the host.
// Every failure here is a dispatch failure.
func dialRemote(cfg *RemoteConfig) (*ssh.Client, error) {
	hostKeys, err := hostKeyCallback(cfg.HostKeyCheck)
	if err != nil {
		return nil, fmt.Errorf("%w: host key config: %v", ErrDispatch, err)
	}

	auths := make([]ssh.AuthMethod, 0, len(cfg.Auth))
	for _, a := range cfg.Auth {
		method, err := a.method()
		if err != nil {
			return nil, fmt.Errorf("%w: auth config: %v", ErrDispatch, err)
		}
		auths = append(auths, method)
	}

	client, err := ssh.Dial("tcp", cfg.addr(), &ssh.ClientConfig{
		User:            cfg.username(),
		Auth:            auths,
		HostKeyCallback: hostKeys,
		Timeout:         cfg.timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrDispatch, cfg.addr(), err)
	}
	return client, nil
}

// execOnClient creates one session on the client and runs the command
// non-interactively, capturing stdout and stderr.
func execOnClient(ctx context.Context, client *ssh.Client, command string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{ExitCode: -1}, err
	}

	session, err := client.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: new session: %v", ErrDispatch, err)
	}
	defer func() {
		_ = session.Close()
	}()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	code, err := runSession(ctx, session, command)
	return Result{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}, err
}

// runSession starts the command on the session and waits for it to
// finish or the context to be done. A remote non-zero exit status is
// returned as data, not as an error.
func runSession(ctx context.Context, session *ssh.Session, command string) (int, error) {
	if err := session.Start(command); err != nil {
		return -1, fmt.Errorf("%w: start on session: %v", ErrDispatch, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		<-done
		return -1, ctx.Err()
	case err := <-done:
		var exitErr *ssh.ExitError
		switch {
		case err == nil:
			return 0, nil
		case errors.As(err, &exitErr):
			return exitErr.ExitStatus(), nil
		default:
			return -1, fmt.Errorf("%w: wait on session: %v", ErrDispatch, err)
		}
	}
}

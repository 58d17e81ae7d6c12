package bashx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// SharedRemoteExecutor is a remote backend that dials once and reuses
// the connection for subsequent calls, creating a new session per
// command. A background loop keeps the connection alive and redials it
// when it drops.
//
// This is the optional pooling enhancement: per-call semantics and the
// (exit code, output) contract are identical to RemoteExecutor. Close
// it when done.
type SharedRemoteExecutor struct {
	Config *RemoteConfig

	mu sync.Mutex
	ka *keepAliveClient
}

var _ Executor = (*SharedRemoteExecutor)(nil)

func (e *SharedRemoteExecutor) Execute(ctx context.Context, command string) (Result, error) {
	cfg := e.Config
	if cfg == nil {
		cfg = DefaultRemoteConfig()
	}

	e.mu.Lock()
	if e.ka == nil {
		e.ka = newKeepAliveClient(cfg)
	}
	ka := e.ka
	e.mu.Unlock()

	client, err := ka.client()
	if err != nil {
		return Result{ExitCode: -1}, err
	}

	return execOnClient(ctx, client, command)
}

// Close shuts down the keep-alive loop and the underlying connection.
func (e *SharedRemoteExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ka == nil {
		return nil
	}
	err := e.ka.close()
	e.ka = nil
	return err
}

// keepAliveClient owns one ssh.Client, pings it periodically with
// keepalive@openssh.com requests, and redials when the ping fails.
type keepAliveClient struct {
	cfg *RemoteConfig

	mu     sync.Mutex
	conn   *ssh.Client
	closed bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newKeepAliveClient(cfg *RemoteConfig) *keepAliveClient {
	c := &keepAliveClient{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// client returns the live connection, dialing if there is none.
func (c *keepAliveClient) client() (*ssh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("%w: remote executor is closed", ErrDispatch)
	}
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := dialRemote(c.cfg)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *keepAliveClient) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.keepAliveInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.ping()
		case <-c.stopCh:
			return
		}
	}
}

// ping sends a keep-alive request and drops the connection on failure
// so the next client() call redials.
func (c *keepAliveClient) ping() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.closed {
		return
	}
	if _, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil); err != nil {
		Log.Log(LevelWarn, "remote keep-alive failed, dropping connection: "+err.Error())
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *keepAliveClient) close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bashx"
)

func TestRootCmd_Echo(t *testing.T) {
	var stdout, stderr bytes.Buffer

	var exitCode int
	cmd := newRootCmd(&exitCode)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--log-level", "ERROR", "--", "echo", "Hello, World!"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Hello, World! EXIT CODE: 0\n", stdout.String())
}

func TestRootCmd_BackendFlag(t *testing.T) {
	var stdout bytes.Buffer

	var exitCode int
	cmd := newRootCmd(&exitCode)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "ERROR", "--backend", "command", "--", "echo", "ok"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ok EXIT CODE: 0\n", stdout.String())
}

func TestRootCmd_UnknownBackend(t *testing.T) {
	var exitCode int
	cmd := newRootCmd(&exitCode)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--backend", "warp", "--", "echo", "ok"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, bashx.ErrUnknownBackend)
}

func TestRootCmd_SkipErr(t *testing.T) {
	var stdout bytes.Buffer

	var exitCode int
	cmd := newRootCmd(&exitCode)
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "ERROR", "--skip-err", "--", "cmd_not_found"})

	// suppressed failures do not surface as command errors
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "", stdout.String())
	assert.Equal(t, 1, exitCode)
}

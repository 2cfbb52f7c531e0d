package sshexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionDefaults(t *testing.T) {
	session := NewSession(Config{Host: "pve1", User: "root"})

	assert.Equal(t, "root", session.User())
	assert.Equal(t, "remote", session.Label())
	assert.False(t, session.DryRun())
}

func TestNewSessionLabel(t *testing.T) {
	session := NewSession(Config{Host: "pve1", User: "root", Label: "proxmox"})
	assert.Equal(t, "proxmox", session.Label())
}

func TestDryRunSkipsMutableCommands(t *testing.T) {
	session := NewSession(Config{Host: "unreachable.invalid", User: "root", DryRun: true})

	// A mutable command under dry-run never touches the network, so this
	// must succeed instantly even against an unreachable host.
	result, err := session.Run(context.Background(), "qm shutdown 100", RunOpts{Mutable: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Empty(t, result.Stdout)
	assert.Empty(t, result.Stderr)
}

func TestCommandErrorMessage(t *testing.T) {
	err := &CommandError{Session: "proxmox", Command: "qm start 100", ExitCode: 2, Stderr: "no such vm\n"}
	assert.Contains(t, err.Error(), "command failed (2) on proxmox")
	assert.Contains(t, err.Error(), "no such vm")

	timeout := &CommandError{Session: "vm-100", Command: "apt update", Timeout: true}
	assert.Contains(t, timeout.Error(), "timed out on vm-100")
}

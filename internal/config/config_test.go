package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Point the home directory at an empty location so no user config leaks in.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "proxmox-hosts.toml", cfg.Manifest)
	assert.Equal(t, "root", cfg.Defaults.User)
	assert.Equal(t, "root", cfg.Defaults.GuestUser)
	assert.Equal(t, 2, cfg.Defaults.MaxParallel)
}

func TestExpandPathPassthrough(t *testing.T) {
	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}

package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvetools/proxmoxctl/internal/maintenance"
	"github.com/pvetools/proxmoxctl/internal/manifest"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxmox-hosts.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// stubMaintenance replaces the maintenance core for the duration of a test and
// records the per-host options it received.
func stubMaintenance(t *testing.T, fn func(opts maintenance.RunOptions) int) *[]maintenance.RunOptions {
	t.Helper()
	var calls []maintenance.RunOptions
	previous := runMaintenance
	runMaintenance = func(ctx context.Context, opts maintenance.RunOptions) int {
		calls = append(calls, opts)
		return fn(opts)
	}
	t.Cleanup(func() { runMaintenance = previous })
	return &calls
}

func TestSelectHostsEmptyFilterKeepsOrder(t *testing.T) {
	hosts := []manifest.HostConfig{{Name: "a"}, {Name: "b"}}
	selected, err := SelectHosts(hosts, nil)
	require.NoError(t, err)
	assert.Equal(t, hosts, selected)
}

func TestSelectHostsRequestOrder(t *testing.T) {
	hosts := []manifest.HostConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	selected, err := SelectHosts(hosts, []string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "c", selected[0].Name)
	assert.Equal(t, "a", selected[1].Name)
}

func TestSelectHostsUnknownNames(t *testing.T) {
	hosts := []manifest.HostConfig{{Name: "a"}}
	_, err := SelectHosts(hosts, []string{"a", "ghost", "phantom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown host(s): ghost, phantom")
}

func TestBuildHostOptions(t *testing.T) {
	defaults := manifest.Defaults{
		GuestUser:         "ops",
		IdentityFile:      "/keys/host",
		GuestIdentityFile: "/keys/guest",
		SSHExtraArgs:      []string{"-o", "LogLevel=ERROR"},
	}
	host := manifest.HostConfig{
		Name:              "lab",
		Host:              "pve1.example.com",
		User:              "admin",
		GuestSSHExtraArgs: []string{"-o", "Port=2222"},
		MaxParallel:       4,
		DryRun:            false,
	}

	opts := BuildHostOptions(host, defaults, false)
	assert.Equal(t, "pve1.example.com", opts.Host)
	assert.Equal(t, "admin", opts.User)
	assert.Equal(t, "ops", opts.GuestUser)
	assert.Equal(t, "/keys/host", opts.IdentityFile)
	assert.Equal(t, "/keys/guest", opts.GuestIdentityFile)
	assert.Equal(t, []string{"-o", "Port=2222"}, opts.GuestSSHExtraArgs)
	assert.Equal(t, 4, opts.MaxParallel)
	assert.False(t, opts.DryRun)

	forced := BuildHostOptions(host, defaults, true)
	assert.True(t, forced.DryRun)
}

func TestRunAllHostsSucceed(t *testing.T) {
	calls := stubMaintenance(t, func(maintenance.RunOptions) int { return 0 })
	path := writeManifest(t, `
[[hosts]]
name = "one"
host = "pve1"

[[hosts]]
name = "two"
host = "pve2"
`)

	code := Run(context.Background(), Options{ManifestPath: path})
	assert.Equal(t, ExitOK, code)
	require.Len(t, *calls, 2)
	assert.Equal(t, "pve1", (*calls)[0].Host)
	assert.Equal(t, "pve2", (*calls)[1].Host)
}

func TestRunMixedResults(t *testing.T) {
	calls := stubMaintenance(t, func(opts maintenance.RunOptions) int {
		if opts.Host == "pve2" {
			return 1
		}
		return 0
	})
	path := writeManifest(t, `
[[hosts]]
name = "one"
host = "pve1"

[[hosts]]
name = "two"
host = "pve2"

[[hosts]]
name = "three"
host = "pve3"
`)

	code := Run(context.Background(), Options{ManifestPath: path})
	assert.Equal(t, ExitHostFailures, code)
	// The failing host never stops the remaining ones.
	assert.Len(t, *calls, 3)
}

func TestRunManifestError(t *testing.T) {
	stubMaintenance(t, func(maintenance.RunOptions) int {
		t.Fatal("maintenance must not run on config errors")
		return 0
	})

	code := Run(context.Background(), Options{ManifestPath: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Equal(t, ExitConfigError, code)
}

func TestRunUnknownHostFilter(t *testing.T) {
	stubMaintenance(t, func(maintenance.RunOptions) int { return 0 })
	path := writeManifest(t, `
[[hosts]]
name = "one"
host = "pve1"
`)

	code := Run(context.Background(), Options{ManifestPath: path, Hosts: []string{"ghost"}})
	assert.Equal(t, ExitConfigError, code)
}

func TestRunLimit(t *testing.T) {
	calls := stubMaintenance(t, func(maintenance.RunOptions) int { return 0 })
	path := writeManifest(t, `
[[hosts]]
name = "one"
host = "pve1"

[[hosts]]
name = "two"
host = "pve2"
`)

	code := Run(context.Background(), Options{ManifestPath: path, Limit: 1})
	assert.Equal(t, ExitOK, code)
	require.Len(t, *calls, 1)
	assert.Equal(t, "pve1", (*calls)[0].Host)
}

func TestRunNegativeLimit(t *testing.T) {
	code := Run(context.Background(), Options{ManifestPath: "irrelevant", Limit: -1})
	assert.Equal(t, ExitConfigError, code)
}

func TestRunForceDryRun(t *testing.T) {
	calls := stubMaintenance(t, func(maintenance.RunOptions) int { return 0 })
	path := writeManifest(t, `
[[hosts]]
name = "one"
host = "pve1"
`)

	code := Run(context.Background(), Options{ManifestPath: path, ForceDryRun: true})
	assert.Equal(t, ExitOK, code)
	require.Len(t, *calls, 1)
	assert.True(t, (*calls)[0].DryRun)
}

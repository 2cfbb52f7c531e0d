package manifest

import (
	"github.com/mitchellh/go-homedir"
)

// Defaults is the resolved [defaults] section consumed by the batch runner.
type Defaults struct {
	User              string
	GuestUser         string
	IdentityFile      string
	GuestIdentityFile string
	SSHExtraArgs      []string
	GuestSSHExtraArgs []string
	MaxParallel       int
	DryRun            bool
}

// HostConfig is one fully resolved host entry: every inheritable field has
// already been merged with defaults.
type HostConfig struct {
	Name              string
	Host              string
	User              string
	GuestSSHExtraArgs []string
	MaxParallel       int
	DryRun            bool
}

// Load reads the manifest at path and resolves every host entry against the
// defaults section. The manifest must name at least one host.
func Load(path string) (Defaults, []HostConfig, error) {
	state, err := LoadState(path)
	if err != nil {
		return Defaults{}, nil, err
	}
	if err := state.Validate(); err != nil {
		return Defaults{}, nil, err
	}
	if len(state.Hosts) == 0 {
		return Defaults{}, nil, errorf("manifest must include a non-empty [[hosts]] list")
	}

	defaults := Defaults{
		User:              state.Defaults.User,
		GuestUser:         state.Defaults.GuestUser,
		IdentityFile:      expandPath(state.Defaults.IdentityFile),
		GuestIdentityFile: expandPath(state.Defaults.GuestIdentityFile),
		SSHExtraArgs:      state.Defaults.SSHExtraArgs,
		GuestSSHExtraArgs: state.Defaults.GuestSSHExtraArgs,
		MaxParallel:       state.Defaults.MaxParallel,
		DryRun:            state.Defaults.DryRun,
	}

	hosts := make([]HostConfig, 0, len(state.Hosts))
	for _, form := range state.Hosts {
		host := HostConfig{
			Name:              form.Name,
			Host:              form.Host,
			User:              defaults.User,
			GuestSSHExtraArgs: defaults.GuestSSHExtraArgs,
			MaxParallel:       defaults.MaxParallel,
			DryRun:            defaults.DryRun,
		}
		if form.User != "" {
			host.User = form.User
		}
		if form.GuestSSHExtraArgs != nil {
			host.GuestSSHExtraArgs = form.GuestSSHExtraArgs
		}
		if form.MaxParallel > 0 {
			host.MaxParallel = form.MaxParallel
		}
		if form.DryRun != nil {
			host.DryRun = *form.DryRun
		}
		hosts = append(hosts, host)
	}
	return defaults, hosts, nil
}

// expandPath resolves a leading ~ so identity files can be written portably
// in shared manifests.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// Package batch runs maintenance across every host in a manifest, one host at
// a time, and aggregates per-host outcomes into a process exit code.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pvetools/proxmoxctl/internal/maintenance"
	"github.com/pvetools/proxmoxctl/internal/manifest"
)

// Exit codes produced by Run.
const (
	ExitOK           = 0
	ExitConfigError  = 1
	ExitHostFailures = 3
)

// HostResult is the outcome of one host's maintenance pass.
type HostResult struct {
	Name     string
	Success  bool
	Duration time.Duration
	Message  string
}

// Options configures one batch invocation.
type Options struct {
	ManifestPath string
	// Hosts limits execution to the named manifest entries. Empty means all.
	Hosts []string
	// Limit caps how many hosts from the filtered list are processed.
	// Zero means no cap.
	Limit int
	// ForceDryRun forces dry-run on every host regardless of the manifest.
	ForceDryRun bool
}

// runMaintenance is swapped out by tests.
var runMaintenance = maintenance.Run

// SelectHosts filters hosts by requested names, preserving manifest order for
// an empty filter and request order otherwise. Unknown names are an error.
func SelectHosts(hosts []manifest.HostConfig, requested []string) ([]manifest.HostConfig, error) {
	if len(requested) == 0 {
		return hosts, nil
	}
	index := make(map[string]manifest.HostConfig, len(hosts))
	for _, host := range hosts {
		index[host.Name] = host
	}
	var missing []string
	selected := make([]manifest.HostConfig, 0, len(requested))
	for _, name := range requested {
		host, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, host)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown host(s): %s", strings.Join(missing, ", "))
	}
	return selected, nil
}

// BuildHostOptions merges one host entry with the manifest defaults into the
// options contract the maintenance core consumes.
func BuildHostOptions(host manifest.HostConfig, defaults manifest.Defaults, forceDryRun bool) maintenance.RunOptions {
	return maintenance.RunOptions{
		Host:              host.Host,
		User:              host.User,
		IdentityFile:      defaults.IdentityFile,
		SSHExtraArgs:      defaults.SSHExtraArgs,
		GuestUser:         defaults.GuestUser,
		GuestIdentityFile: defaults.GuestIdentityFile,
		GuestSSHExtraArgs: host.GuestSSHExtraArgs,
		MaxParallel:       host.MaxParallel,
		DryRun:            forceDryRun || host.DryRun,
	}
}

// runHost runs one host's maintenance pass and reports success plus an
// optional failure message.
func runHost(ctx context.Context, host manifest.HostConfig, defaults manifest.Defaults, forceDryRun bool) (success bool, message string) {
	options := BuildHostOptions(host, defaults, forceDryRun)
	log.Info("maintenance-start", "host", host.Name, "target", host.Host)
	code := runMaintenance(ctx, options)
	if code == 0 {
		return true, ""
	}
	return false, fmt.Sprintf("maintenance exited with status %d", code)
}

// Run executes maintenance across the manifest's hosts sequentially.
//
// Exit codes: 0 when every host succeeded, 1 on manifest or configuration
// errors, 3 when at least one host failed during maintenance.
func Run(ctx context.Context, options Options) int {
	if options.Limit < 0 {
		log.Error("manifest-error", "error", "host limit must be greater than zero")
		return ExitConfigError
	}

	defaults, hosts, err := manifest.Load(options.ManifestPath)
	if err != nil {
		log.Error("manifest-error", "error", err)
		return ExitConfigError
	}

	selected, err := SelectHosts(hosts, options.Hosts)
	if err != nil {
		log.Error("host-selection-error", "error", err)
		return ExitConfigError
	}
	if options.Limit > 0 && options.Limit < len(selected) {
		selected = selected[:options.Limit]
	}
	if len(selected) == 0 {
		log.Warn("no-hosts-selected")
		return ExitOK
	}

	runID := uuid.NewString()
	results := make([]HostResult, 0, len(selected))
	for _, host := range selected {
		start := time.Now()
		success, message := runHost(ctx, host, defaults, options.ForceDryRun)
		duration := time.Since(start)
		results = append(results, HostResult{
			Name:     host.Name,
			Success:  success,
			Duration: duration,
			Message:  message,
		})
		if success {
			log.Info("host-success", "run", runID, "host", host.Name, "duration_sec", duration.Seconds())
		} else {
			details := message
			if details == "" {
				details = "no details"
			}
			log.Error("host-failed", "run", runID, "host", host.Name, "duration_sec", duration.Seconds(), "details", details)
		}
	}

	for _, result := range results {
		if !result.Success {
			return ExitHostFailures
		}
	}
	return ExitOK
}

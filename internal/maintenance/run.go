package maintenance

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/pvetools/proxmoxctl/internal/inventory"
	"github.com/pvetools/proxmoxctl/internal/osupgrade"
	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// Run performs one orchestrator pass against options.Host and returns a
// process-style result code: 0 on a clean pass, 1 when any guest, listing, or
// host upgrade failed. Individual failures surface through structured log
// events as they happen; the aggregate is reported once at the end.
func Run(ctx context.Context, options RunOptions) int {
	hostSession := sshexec.NewSession(sshexec.Config{
		Host:         options.Host,
		User:         options.User,
		DryRun:       options.DryRun,
		IdentityFile: options.IdentityFile,
		ExtraArgs:    options.SSHExtraArgs,
		Label:        "proxmox",
	})
	guestOpts := sshexec.GuestOptions{
		User:         options.GuestUser,
		IdentityFile: options.GuestIdentityFile,
		ExtraArgs:    options.GuestSSHExtraArgs,
	}
	client := inventory.NewClient(hostSession)
	orchestrator := NewOrchestrator(hostSession, client, guestOpts, osupgrade.NewUpgrader(), options.MaxParallel)
	if err := orchestrator.Run(ctx); err != nil {
		log.Error("maintenance-run-error", "host", options.Host, "error", err)
		return 1
	}
	return 0
}

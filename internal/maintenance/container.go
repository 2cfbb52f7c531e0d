package maintenance

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/pvetools/proxmoxctl/internal/inventory"
	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// ContainerReconciler maintains one LXC guest. Same state machine as the VM
// variant; only the command vocabulary and address discovery differ.
type ContainerReconciler struct {
	container *inventory.Container
	session   sshexec.Runner
	guestOpts sshexec.GuestOptions
	upgrader  GuestUpgrader
}

// NewContainerReconciler builds a reconciler owning container.
func NewContainerReconciler(
	container *inventory.Container,
	session sshexec.Runner,
	guestOpts sshexec.GuestOptions,
	upgrader GuestUpgrader,
) *ContainerReconciler {
	return &ContainerReconciler{
		container: container,
		session:   session,
		guestOpts: guestOpts,
		upgrader:  upgrader,
	}
}

// Reconcile runs the lifecycle. See VMReconciler.Reconcile for the failure
// contract.
func (r *ContainerReconciler) Reconcile(ctx context.Context) error {
	log.Info("process-ct", "name", r.container.Name, "ctid", r.container.CTID)
	wasRunning := r.container.IsRunning()
	if wasRunning {
		if err := r.stop(ctx); err != nil {
			return err
		}
	}
	if err := r.backup(ctx); err != nil {
		return err
	}
	if err := r.start(ctx); err != nil {
		return err
	}
	if ip := r.fetchIP(ctx); ip != "" {
		r.upgrader.AttemptGuestUpgrade(ctx, ip, r.guestOpts.User, r.guestOpts, r.session.DryRun(), "ct-"+r.container.CTID)
	} else {
		log.Warn("ct-ip-missing", "ctid", r.container.CTID)
	}
	if !wasRunning {
		return r.stop(ctx)
	}
	return nil
}

func (r *ContainerReconciler) stop(ctx context.Context) error {
	cmd := sshexec.ShellJoin("pct", "shutdown", r.container.CTID, "--timeout", "120")
	if _, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true}); err != nil {
		return err
	}
	r.container.Status = "stopped"
	return nil
}

func (r *ContainerReconciler) backup(ctx context.Context) error {
	cmd := sshexec.ShellJoin("vzdump", r.container.CTID, "--mode", "snapshot", "--compress", "zstd")
	_, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true})
	return err
}

func (r *ContainerReconciler) start(ctx context.Context) error {
	cmd := sshexec.ShellJoin("pct", "start", r.container.CTID)
	if _, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true}); err != nil {
		return err
	}
	r.container.Status = "running"
	return nil
}

// fetchIP asks the container for its addresses and returns the first valid
// IPv4 token, or "" when the command fails or nothing qualifies.
func (r *ContainerReconciler) fetchIP(ctx context.Context) string {
	cmd := sshexec.ShellJoin("pct", "exec", r.container.CTID, "--", "hostname", "-I")
	result, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Capture: true})
	if err != nil {
		log.Error("ct-ip-fetch-error", "ctid", r.container.CTID, "error", err)
		return ""
	}
	return ExtractIPv4(result.Stdout)
}

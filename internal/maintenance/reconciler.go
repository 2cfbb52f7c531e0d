package maintenance

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pvetools/proxmoxctl/internal/inventory"
	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// Reconciler drives one guest through its maintenance lifecycle. The
// orchestrator never inspects which concrete variant it holds.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// InterfaceFetcher is the slice of the inventory client the VM reconciler
// needs for address discovery.
type InterfaceFetcher interface {
	FetchVMInterfaces(ctx context.Context, vmid string) ([]inventory.GuestInterface, error)
}

// GuestUpgrader runs a best-effort OS upgrade against a guest address.
// Implemented by *osupgrade.Upgrader.
type GuestUpgrader interface {
	AttemptGuestUpgrade(ctx context.Context, ip, defaultUser string, options sshexec.GuestOptions, dryRun bool, identifier string)
}

// VMReconciler maintains one QEMU guest: stop if running, backup, start,
// discover an address through the guest agent, upgrade, and restore the
// initial power state.
type VMReconciler struct {
	vm        *inventory.VirtualMachine
	session   sshexec.Runner
	inventory InterfaceFetcher
	guestOpts sshexec.GuestOptions
	upgrader  GuestUpgrader
}

// NewVMReconciler builds a reconciler owning vm. The record must not be shared
// with another reconciler.
func NewVMReconciler(
	vm *inventory.VirtualMachine,
	session sshexec.Runner,
	fetcher InterfaceFetcher,
	guestOpts sshexec.GuestOptions,
	upgrader GuestUpgrader,
) *VMReconciler {
	return &VMReconciler{
		vm:        vm,
		session:   session,
		inventory: fetcher,
		guestOpts: guestOpts,
		upgrader:  upgrader,
	}
}

// Reconcile runs the lifecycle. Stop, backup, and start failures abort the
// guest and propagate; discovery and upgrade failures degrade to a skipped
// upgrade.
func (r *VMReconciler) Reconcile(ctx context.Context) error {
	log.Info("process-vm", "name", r.vm.Name, "vmid", r.vm.VMID)
	wasRunning := r.vm.IsRunning()
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
		r.upgrader.AttemptGuestUpgrade(ctx, ip, r.guestOpts.User, r.guestOpts, r.session.DryRun(), "vm-"+r.vm.VMID)
	} else {
		log.Warn("vm-ip-missing", "vmid", r.vm.VMID)
	}
	if !wasRunning {
		return r.stop(ctx)
	}
	return nil
}

func (r *VMReconciler) stop(ctx context.Context) error {
	log.Info("stop-vm", "vmid", r.vm.VMID)
	cmd := sshexec.ShellJoin("qm", "shutdown", r.vm.VMID, "--timeout", "120")
	if _, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true}); err != nil {
		return err
	}
	r.vm.Status = "stopped"
	return nil
}

func (r *VMReconciler) backup(ctx context.Context) error {
	log.Info("backup-vm", "vmid", r.vm.VMID)
	cmd := sshexec.ShellJoin("vzdump", r.vm.VMID, "--mode", "snapshot", "--compress", "zstd")
	_, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true})
	return err
}

func (r *VMReconciler) start(ctx context.Context) error {
	log.Info("start-vm", "vmid", r.vm.VMID)
	cmd := sshexec.ShellJoin("qm", "start", r.vm.VMID)
	if _, err := r.session.Run(ctx, cmd, sshexec.RunOpts{Mutable: true}); err != nil {
		return err
	}
	r.vm.Status = "running"
	return nil
}

// fetchIP returns the first IPv4 address reported by the guest agent, or ""
// when discovery fails or nothing qualifies.
func (r *VMReconciler) fetchIP(ctx context.Context) string {
	interfaces, err := r.inventory.FetchVMInterfaces(ctx, r.vm.VMID)
	if err != nil {
		log.Error("vm-ip-fetch-error", "vmid", r.vm.VMID, "error", err)
		return ""
	}
	for _, iface := range interfaces {
		for _, address := range iface.IPAddresses {
			if strings.EqualFold(address.IPAddressType, "ipv4") {
				return address.IPAddress
			}
		}
	}
	return ""
}

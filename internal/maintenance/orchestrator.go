package maintenance

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/pvetools/proxmoxctl/internal/inventory"
	"github.com/pvetools/proxmoxctl/internal/osupgrade"
	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// InventoryClient is the read-only listing surface the orchestrator consumes.
// Implemented by *inventory.Client.
type InventoryClient interface {
	ListVMs(ctx context.Context) ([]*inventory.VirtualMachine, error)
	ListContainers(ctx context.Context) ([]*inventory.Container, error)
	FetchVMInterfaces(ctx context.Context, vmid string) ([]inventory.GuestInterface, error)
}

// Orchestrator reconciles every guest on one host: all VMs first, then all
// containers, each batch under a bounded-concurrency gate, then a host-level
// OS upgrade.
type Orchestrator struct {
	session     sshexec.Runner
	inventory   InventoryClient
	guestOpts   sshexec.GuestOptions
	upgrader    GuestUpgrader
	maxParallel int64
}

// NewOrchestrator clamps maxParallel to at least 1.
func NewOrchestrator(
	session sshexec.Runner,
	client InventoryClient,
	guestOpts sshexec.GuestOptions,
	upgrader GuestUpgrader,
	maxParallel int,
) *Orchestrator {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Orchestrator{
		session:     session,
		inventory:   client,
		guestOpts:   guestOpts,
		upgrader:    upgrader,
		maxParallel: int64(maxParallel),
	}
}

// Run performs one full maintenance pass. A listing failure degrades that
// guest type to an empty set; it never blocks the other type or the host
// upgrade. Every degradation and failed guest is still counted, and Run
// returns an aggregate error so callers can report the host as failed.
func (o *Orchestrator) Run(ctx context.Context) error {
	var failures []string

	vms, err := o.inventory.ListVMs(ctx)
	if err != nil {
		log.Error("vm-list-error", "error", err)
		failures = append(failures, "VM listing failed")
		vms = nil
	}
	vmReconcilers := make([]Reconciler, 0, len(vms))
	for _, vm := range vms {
		vmReconcilers = append(vmReconcilers, NewVMReconciler(vm, o.session, o.inventory, o.guestOpts, o.upgrader))
	}
	if failed := o.runBounded(ctx, vmReconcilers); failed > 0 {
		failures = append(failures, fmt.Sprintf("%d of %d VMs failed", failed, len(vmReconcilers)))
	}

	containers, err := o.inventory.ListContainers(ctx)
	if err != nil {
		log.Error("container-list-error", "error", err)
		failures = append(failures, "container listing failed")
		containers = nil
	}
	ctReconcilers := make([]Reconciler, 0, len(containers))
	for _, ct := range containers {
		ctReconcilers = append(ctReconcilers, NewContainerReconciler(ct, o.session, o.guestOpts, o.upgrader))
	}
	if failed := o.runBounded(ctx, ctReconcilers); failed > 0 {
		failures = append(failures, fmt.Sprintf("%d of %d containers failed", failed, len(ctReconcilers)))
	}

	if err := o.upgradeHost(ctx); err != nil {
		failures = append(failures, "host upgrade failed")
	}

	if len(failures) > 0 {
		return fmt.Errorf("maintenance incomplete: %s", strings.Join(failures, "; "))
	}
	return nil
}

// runBounded reconciles all guests with at most maxParallel in flight and
// returns how many failed. Each worker recovers its own reconciler's error, so
// one guest's failure never cancels siblings; the gate waits for every
// outcome.
func (o *Orchestrator) runBounded(ctx context.Context, reconcilers []Reconciler) int {
	if len(reconcilers) == 0 {
		return 0
	}
	sem := semaphore.NewWeighted(o.maxParallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for _, reconciler := range reconcilers {
		wg.Add(1)
		go func(r Reconciler) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Error("guest-reconcile-error", "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			defer sem.Release(1)
			if err := r.Reconcile(ctx); err != nil {
				log.Error("guest-reconcile-error", "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(reconciler)
	}
	wg.Wait()
	return failed
}

// upgradeHost upgrades the host OS itself using the same detection logic as
// the guest helper. The host session is assumed privileged; sudo is never
// prefixed. An unrecognized OS family is logged but not treated as a run
// failure.
func (o *Orchestrator) upgradeHost(ctx context.Context) error {
	log.Info("host-upgrade")
	release, err := o.session.Run(ctx, "cat /etc/os-release", sshexec.RunOpts{Capture: true})
	if err != nil {
		log.Error("host-os-release-error", "error", err)
		return err
	}
	packageManager := osupgrade.DeterminePackageManager(osupgrade.ParseOSRelease(release.Stdout))
	if packageManager == "" {
		log.Error("host-upgrade-unsupported")
		return nil
	}
	command, err := osupgrade.BuildUpgradeCommand(packageManager, false)
	if err != nil {
		log.Error("host-upgrade-failed", "error", err)
		return err
	}
	if _, err := o.session.Run(ctx, command, sshexec.RunOpts{Mutable: true}); err != nil {
		log.Error("host-upgrade-failed", "error", err)
		return err
	}
	return nil
}

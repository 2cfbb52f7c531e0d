package wizard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/log"

	"github.com/pvetools/proxmoxctl/internal/inventory"
	"github.com/pvetools/proxmoxctl/internal/maintenance"
	"github.com/pvetools/proxmoxctl/internal/manifest"
	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// GuestInventoryKey is the manifest host key the builder persists discovered
// guests under. It lives in the host entry's extras so the batch runner
// ignores it.
const GuestInventoryKey = "guest_inventory"

// GuestDiscovery is one guest found on a live host.
type GuestDiscovery struct {
	Kind       string // "vm" or "ct"
	Identifier string
	Name       string
	Status     string
	IP         string
}

// Label renders the selection label shown to the operator.
func (g GuestDiscovery) Label() string {
	prefix := "VM"
	if g.Kind == "ct" {
		prefix = "CT"
	}
	return fmt.Sprintf("%s %s (%s)", prefix, g.Name, g.Identifier)
}

// ManagedGuest is a discovered guest plus the operator's decision about it.
type ManagedGuest struct {
	Discovery   GuestDiscovery
	Managed     bool
	Notes       string
	LastChecked string
}

func (m ManagedGuest) toMap() map[string]any {
	payload := map[string]any{
		"kind":         m.Discovery.Kind,
		"id":           m.Discovery.Identifier,
		"name":         m.Discovery.Name,
		"status":       m.Discovery.Status,
		"ip":           m.Discovery.IP,
		"managed":      m.Managed,
		"last_checked": m.LastChecked,
	}
	if m.Notes != "" {
		payload["notes"] = m.Notes
	}
	return payload
}

// updateHostInventory replaces the host entry's guest inventory with guests.
func updateHostInventory(host *manifest.HostForm, guests []ManagedGuest) {
	if host.Extras == nil {
		host.Extras = map[string]any{}
	}
	entries := make([]any, len(guests))
	for i, guest := range guests {
		entries[i] = guest.toMap()
	}
	host.Extras[GuestInventoryKey] = entries
}

// loadExistingGuestMap indexes a host entry's recorded inventory by guest id,
// tolerating missing or malformed entries.
func loadExistingGuestMap(host manifest.HostForm) map[string]map[string]any {
	result := map[string]map[string]any{}
	if host.Extras == nil {
		return result
	}
	entries, ok := host.Extras[GuestInventoryKey].([]any)
	if !ok {
		return result
	}
	for _, entryRaw := range entries {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		id, ok := entry["id"].(string)
		if !ok || id == "" {
			continue
		}
		result[id] = entry
	}
	return result
}

// InventoryBuilder connects to one manifest host, discovers its guests, and
// records the operator's managed/notes decisions back into the manifest.
type InventoryBuilder struct {
	path       string
	hostFilter string
}

// NewInventoryBuilder edits the manifest at path. hostFilter pre-selects an
// existing host entry by name; blank prompts for one.
func NewInventoryBuilder(path, hostFilter string) *InventoryBuilder {
	return &InventoryBuilder{path: path, hostFilter: hostFilter}
}

// Run drives the discovery workflow end to end.
func (b *InventoryBuilder) Run(ctx context.Context) error {
	state, err := b.loadState()
	if err != nil {
		return err
	}
	hostIndex, err := b.selectHost(state)
	if err != nil {
		return err
	}
	host := &state.Hosts[hostIndex]

	guests, err := b.discoverGuests(ctx, state, *host)
	if err != nil {
		return err
	}
	if len(guests) == 0 {
		log.Warn("no-guests-discovered", "host", host.Name)
		return nil
	}

	managed, err := b.markManaged(*host, guests)
	if err != nil {
		return err
	}
	updateHostInventory(host, managed)
	return manifest.WriteState(state, b.path)
}

func (b *InventoryBuilder) loadState() (*manifest.State, error) {
	if _, err := os.Stat(b.path); os.IsNotExist(err) {
		log.Info("manifest-create", "path", b.path)
		return manifest.EmptyState(), nil
	}
	return manifest.LoadState(b.path)
}

// selectHost returns the index of the host entry to inventory, creating a new
// entry when the operator asks for one.
func (b *InventoryBuilder) selectHost(state *manifest.State) (int, error) {
	if b.hostFilter != "" {
		for i, host := range state.Hosts {
			if host.Name == b.hostFilter {
				return i, nil
			}
		}
		return 0, fmt.Errorf("unknown host '%s'", b.hostFilter)
	}
	options := make([]string, 0, len(state.Hosts)+1)
	for _, host := range state.Hosts {
		options = append(options, hostLabel(host))
	}
	options = append(options, "Add a new host")
	var choice string
	if err := askOne(&survey.Select{Message: "Select a host to inventory", Options: options}, &choice); err != nil {
		return 0, err
	}
	if choice != "Add a new host" {
		for i, host := range state.Hosts {
			if hostLabel(host) == choice {
				return i, nil
			}
		}
	}
	address, err := askText("Host address", "", true)
	if err != nil {
		return 0, err
	}
	name, err := askText("Display name", address, true)
	if err != nil {
		return 0, err
	}
	state.Hosts = append(state.Hosts, manifest.HostForm{Name: name, Host: address})
	return len(state.Hosts) - 1, nil
}

// discoverGuests lists VMs and containers over SSH and resolves their
// addresses. Discovery is read-only; the session never mutates host state.
func (b *InventoryBuilder) discoverGuests(ctx context.Context, state *manifest.State, host manifest.HostForm) ([]GuestDiscovery, error) {
	user := host.User
	if user == "" {
		user = state.Defaults.User
	}
	session := sshexec.NewSession(sshexec.Config{
		Host:         host.Host,
		User:         user,
		IdentityFile: state.Defaults.IdentityFile,
		ExtraArgs:    state.Defaults.SSHExtraArgs,
		Label:        "inventory",
	})
	client := inventory.NewClient(session)

	var guests []GuestDiscovery
	vms, err := client.ListVMs(ctx)
	if err != nil {
		log.Error("vm-list-error", "error", err)
	}
	for _, vm := range vms {
		guests = append(guests, GuestDiscovery{
			Kind:       "vm",
			Identifier: vm.VMID,
			Name:       vm.Name,
			Status:     vm.Status,
			IP:         vmAddress(ctx, client, vm.VMID),
		})
	}
	containers, err := client.ListContainers(ctx)
	if err != nil {
		log.Error("container-list-error", "error", err)
	}
	for _, ct := range containers {
		guests = append(guests, GuestDiscovery{
			Kind:       "ct",
			Identifier: ct.CTID,
			Name:       ct.Name,
			Status:     ct.Status,
			IP:         containerAddress(ctx, session, ct.CTID),
		})
	}
	return guests, nil
}

func vmAddress(ctx context.Context, client *inventory.Client, vmid string) string {
	interfaces, err := client.FetchVMInterfaces(ctx, vmid)
	if err != nil {
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

func containerAddress(ctx context.Context, session sshexec.Runner, ctid string) string {
	cmd := sshexec.ShellJoin("pct", "exec", ctid, "--", "hostname", "-I")
	result, err := session.Run(ctx, cmd, sshexec.RunOpts{Capture: true})
	if err != nil {
		return ""
	}
	return maintenance.ExtractIPv4(result.Stdout)
}

// markManaged asks which guests should be managed and collects notes for the
// managed ones, carrying forward notes recorded on a previous pass.
func (b *InventoryBuilder) markManaged(host manifest.HostForm, guests []GuestDiscovery) ([]ManagedGuest, error) {
	existing := loadExistingGuestMap(host)
	options := make([]string, len(guests))
	var preselected []string
	for i, guest := range guests {
		options[i] = guest.Label()
		if prior, ok := existing[guest.Identifier]; ok {
			if managed, ok := prior["managed"].(bool); ok && managed {
				preselected = append(preselected, guest.Label())
			}
		}
	}
	var chosen []string
	prompt := &survey.MultiSelect{
		Message: "Select guests to manage",
		Options: options,
		Default: preselected,
	}
	if err := askOne(prompt, &chosen); err != nil {
		return nil, err
	}
	chosenSet := make(map[string]bool, len(chosen))
	for _, label := range chosen {
		chosenSet[label] = true
	}

	now := time.Now().UTC().Format(time.RFC3339)
	managed := make([]ManagedGuest, 0, len(guests))
	for _, guest := range guests {
		entry := ManagedGuest{
			Discovery:   guest,
			Managed:     chosenSet[guest.Label()],
			LastChecked: now,
		}
		if prior, ok := existing[guest.Identifier]; ok {
			if notes, ok := prior["notes"].(string); ok {
				entry.Notes = notes
			}
		}
		if entry.Managed {
			notes, err := askOptionalText(fmt.Sprintf("Notes for %s (blank for none)", guest.Label()), entry.Notes)
			if err != nil {
				return nil, err
			}
			entry.Notes = notes
		}
		managed = append(managed, entry)
	}
	return managed, nil
}

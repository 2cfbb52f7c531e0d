package wizard

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/pvetools/proxmoxctl/internal/manifest"
)

// ManifestWizard edits a manifest interactively: defaults, host entries, and
// a save/discard loop. Unknown manifest keys survive untouched.
type ManifestWizard struct {
	path  string
	state *manifest.State
	dirty bool
}

// NewManifestWizard edits the manifest at path.
func NewManifestWizard(path string) *ManifestWizard {
	return &ManifestWizard{path: path, state: manifest.EmptyState()}
}

func (w *ManifestWizard) load() error {
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		create, err := askBool(fmt.Sprintf("Manifest '%s' not found. Create a new manifest?", w.path), true)
		if err != nil {
			return err
		}
		if !create {
			return ErrAborted
		}
		w.state = manifest.EmptyState()
		w.dirty = true
		return nil
	}
	state, err := manifest.LoadState(w.path)
	if err != nil {
		return err
	}
	w.state = state
	return nil
}

// Run drives the edit loop until the operator saves or exits.
func (w *ManifestWizard) Run() error {
	if err := w.load(); err != nil {
		return err
	}
	for {
		var choice string
		prompt := &survey.Select{
			Message: "Select an action",
			Options: []string{"Edit defaults", "Manage hosts", "Save and exit", "Exit without saving"},
		}
		if err := askOne(prompt, &choice); err != nil {
			return err
		}
		switch choice {
		case "Edit defaults":
			changed, err := w.editDefaults()
			if err != nil {
				return err
			}
			w.dirty = w.dirty || changed
		case "Manage hosts":
			changed, err := w.manageHosts()
			if err != nil {
				return err
			}
			w.dirty = w.dirty || changed
		case "Save and exit":
			return w.save()
		case "Exit without saving":
			if w.dirty {
				discard, err := askBool("Discard unsaved changes?", false)
				if err != nil {
					return err
				}
				if !discard {
					continue
				}
			}
			return nil
		}
	}
}

func (w *ManifestWizard) save() error {
	if err := manifest.WriteState(w.state, w.path); err != nil {
		return err
	}
	w.dirty = false
	return nil
}

func (w *ManifestWizard) editDefaults() (bool, error) {
	defaults := &w.state.Defaults
	var err error
	if defaults.User, err = askText("SSH user", defaults.User, true); err != nil {
		return false, err
	}
	if defaults.GuestUser, err = askText("Guest SSH user", defaults.GuestUser, true); err != nil {
		return false, err
	}
	if defaults.IdentityFile, err = askOptionalText("SSH identity file (blank for none)", defaults.IdentityFile); err != nil {
		return false, err
	}
	if defaults.GuestIdentityFile, err = askOptionalText("Guest SSH identity file (blank for none)", defaults.GuestIdentityFile); err != nil {
		return false, err
	}
	if defaults.SSHExtraArgs, err = askCSVList("Extra ssh arguments (comma separated)", defaults.SSHExtraArgs); err != nil {
		return false, err
	}
	if defaults.GuestSSHExtraArgs, err = askCSVList("Extra guest ssh arguments (comma separated)", defaults.GuestSSHExtraArgs); err != nil {
		return false, err
	}
	if defaults.MaxParallel, err = askInt("Maximum concurrent guest operations", defaults.MaxParallel); err != nil {
		return false, err
	}
	if defaults.DryRun, err = askBool("Dry-run by default?", defaults.DryRun); err != nil {
		return false, err
	}
	return true, nil
}

func hostLabel(host manifest.HostForm) string {
	return fmt.Sprintf("%s (%s)", host.Name, host.Host)
}

func (w *ManifestWizard) manageHosts() (bool, error) {
	changed := false
	for {
		options := make([]string, 0, len(w.state.Hosts)+2)
		for _, host := range w.state.Hosts {
			options = append(options, hostLabel(host))
		}
		options = append(options, "Add host", "Back")
		var choice string
		if err := askOne(&survey.Select{Message: "Select a host", Options: options}, &choice); err != nil {
			return changed, err
		}
		switch choice {
		case "Add host":
			host, err := w.editHost(manifest.HostForm{})
			if err != nil {
				return changed, err
			}
			w.state.Hosts = append(w.state.Hosts, host)
			changed = true
		case "Back":
			return changed, nil
		default:
			for i, host := range w.state.Hosts {
				if hostLabel(host) != choice {
					continue
				}
				remove, err := askBool(fmt.Sprintf("Remove host '%s'?", host.Name), false)
				if err != nil {
					return changed, err
				}
				if remove {
					w.state.Hosts = append(w.state.Hosts[:i], w.state.Hosts[i+1:]...)
					changed = true
					break
				}
				edited, err := w.editHost(host)
				if err != nil {
					return changed, err
				}
				w.state.Hosts[i] = edited
				changed = true
				break
			}
		}
	}
}

func (w *ManifestWizard) editHost(host manifest.HostForm) (manifest.HostForm, error) {
	var err error
	if host.Host, err = askText("Host address", host.Host, true); err != nil {
		return host, err
	}
	defaultName := host.Name
	if defaultName == "" {
		defaultName = host.Host
	}
	if host.Name, err = askText("Display name", defaultName, true); err != nil {
		return host, err
	}
	if host.User, err = askOptionalText("SSH user (blank to inherit defaults)", host.User); err != nil {
		return host, err
	}
	guestArgs, err := askCSVList("Guest ssh extra arguments (comma separated, blank to inherit)", host.GuestSSHExtraArgs)
	if err != nil {
		return host, err
	}
	host.GuestSSHExtraArgs = guestArgs
	override, err := askBool("Override max parallel for this host?", host.MaxParallel > 0)
	if err != nil {
		return host, err
	}
	if override {
		current := host.MaxParallel
		if current <= 0 {
			current = w.state.Defaults.MaxParallel
		}
		if host.MaxParallel, err = askInt("Maximum concurrent guest operations", current); err != nil {
			return host, err
		}
	} else {
		host.MaxParallel = 0
	}
	overrideDryRun, err := askBool("Override dry-run for this host?", host.DryRun != nil)
	if err != nil {
		return host, err
	}
	if overrideDryRun {
		current := w.state.Defaults.DryRun
		if host.DryRun != nil {
			current = *host.DryRun
		}
		dryRun, err := askBool("Dry-run?", current)
		if err != nil {
			return host, err
		}
		host.DryRun = &dryRun
	} else {
		host.DryRun = nil
	}
	return host, nil
}

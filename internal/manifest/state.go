// Package manifest reads, validates, and writes proxmox-hosts manifests.
//
// The on-disk format is TOML: a [defaults] table and a [[hosts]] array.
// Unknown keys are preserved round-trip so external tooling (and the guest
// inventory the builder records) survives wizard edits.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrManifest tags every manifest loading or validation failure.
var ErrManifest = errors.New("manifest error")

func errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrManifest}, args...)...)
}

// DefaultsForm is the editable defaults section. Extras holds unrecognized
// keys verbatim.
type DefaultsForm struct {
	User              string
	GuestUser         string
	IdentityFile      string
	GuestIdentityFile string
	SSHExtraArgs      []string
	GuestSSHExtraArgs []string
	MaxParallel       int
	DryRun            bool
	Extras            map[string]any
}

// HostForm is one editable host entry. Zero/nil optional fields inherit from
// defaults.
type HostForm struct {
	Name              string
	Host              string
	User              string
	GuestSSHExtraArgs []string
	MaxParallel       int
	DryRun            *bool
	Extras            map[string]any
}

// State is a complete manifest held for editing.
type State struct {
	Defaults       DefaultsForm
	Hosts          []HostForm
	TopLevelExtras map[string]any
}

// EmptyState returns a manifest with library defaults and no hosts.
func EmptyState() *State {
	return &State{
		Defaults:       defaultsFormDefaults(),
		TopLevelExtras: map[string]any{},
	}
}

func defaultsFormDefaults() DefaultsForm {
	return DefaultsForm{
		User:        "root",
		GuestUser:   "root",
		MaxParallel: 2,
		Extras:      map[string]any{},
	}
}

// LoadState parses the manifest at path into an editable State.
func LoadState(path string) (*State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorf("manifest file '%s' was not found", path)
		}
		return nil, errorf("manifest file '%s' could not be read: %v", path, err)
	}
	var document map[string]any
	if err := toml.Unmarshal(raw, &document); err != nil {
		return nil, errorf("manifest file '%s' is invalid: %v", path, err)
	}

	state := &State{}

	defaultsRaw, _ := document["defaults"].(map[string]any)
	if document["defaults"] != nil && defaultsRaw == nil {
		return nil, errorf("[defaults] must be a table")
	}
	defaults, err := loadDefaultsForm(defaultsRaw)
	if err != nil {
		return nil, err
	}
	state.Defaults = defaults
	delete(document, "defaults")

	if hostsRaw, ok := document["hosts"]; ok {
		entries, ok := hostsRaw.([]any)
		if !ok {
			return nil, errorf("[[hosts]] must be an array of tables")
		}
		for _, entryRaw := range entries {
			entry, ok := entryRaw.(map[string]any)
			if !ok {
				return nil, errorf("each [[hosts]] entry must be a table")
			}
			host, err := loadHostForm(entry)
			if err != nil {
				return nil, err
			}
			state.Hosts = append(state.Hosts, host)
		}
		delete(document, "hosts")
	}

	state.TopLevelExtras = document
	return state, nil
}

func loadDefaultsForm(raw map[string]any) (DefaultsForm, error) {
	form := defaultsFormDefaults()
	if raw == nil {
		return form, nil
	}
	working := deepCopyMap(raw)

	var err error
	if value, ok := extract(working, "user"); ok {
		if form.User, err = expectString(value, "defaults.user"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "guest_user", "guest.user"); ok {
		if form.GuestUser, err = expectString(value, "defaults.guest_user"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "identity_file", "ssh.identity_file"); ok {
		if form.IdentityFile, err = expectString(value, "defaults.identity_file"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "guest_identity_file", "guest.identity_file"); ok {
		if form.GuestIdentityFile, err = expectString(value, "defaults.guest_identity_file"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "ssh_extra_args", "ssh.extra_args"); ok {
		if form.SSHExtraArgs, err = expectStringList(value, "defaults.ssh_extra_args"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "guest_ssh_extra_args", "guest.ssh_extra_args", "guest.ssh.extra_args"); ok {
		if form.GuestSSHExtraArgs, err = expectStringList(value, "defaults.guest_ssh_extra_args"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "max_parallel"); ok {
		if form.MaxParallel, err = expectInt(value, "defaults.max_parallel"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "dry_run"); ok {
		if form.DryRun, err = expectBool(value, "defaults.dry_run"); err != nil {
			return form, errorf("%v", err)
		}
	}
	form.Extras = working
	return form, nil
}

func loadHostForm(raw map[string]any) (HostForm, error) {
	working := deepCopyMap(raw)
	form := HostForm{Extras: working}

	hostValue, ok := extract(working, "host")
	if !ok {
		return form, errorf("each host requires a 'host' value")
	}
	var err error
	if form.Host, err = expectString(hostValue, "hosts.host"); err != nil {
		return form, errorf("%v", err)
	}
	if form.Host == "" {
		return form, errorf("each host requires a 'host' value")
	}
	if value, ok := extract(working, "name"); ok {
		if form.Name, err = expectString(value, "hosts.name"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if form.Name == "" {
		form.Name = form.Host
	}
	if value, ok := extract(working, "user", "ssh.user"); ok {
		if form.User, err = expectString(value, "hosts.user"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "guest_ssh_extra_args", "guest.ssh_extra_args", "guest.ssh.extra_args"); ok {
		if form.GuestSSHExtraArgs, err = expectStringList(value, "hosts.guest_ssh_extra_args"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "max_parallel"); ok {
		if form.MaxParallel, err = expectInt(value, "hosts.max_parallel"); err != nil {
			return form, errorf("%v", err)
		}
	}
	if value, ok := extract(working, "dry_run"); ok {
		dryRun, err := expectBool(value, "hosts.dry_run")
		if err != nil {
			return form, errorf("%v", err)
		}
		form.DryRun = &dryRun
	}
	return form, nil
}

// Validate rejects states the batch runner could not consume.
func (s *State) Validate() error {
	seen := make(map[string]bool, len(s.Hosts))
	for _, host := range s.Hosts {
		if host.Host == "" {
			return errorf("each host requires a 'host' value")
		}
		name := host.Name
		if name == "" {
			name = host.Host
		}
		if seen[name] {
			return errorf("duplicate host name '%s' detected", name)
		}
		seen[name] = true
		if host.MaxParallel < 0 {
			return errorf("max_parallel must be positive for host '%s'", name)
		}
	}
	if s.Defaults.MaxParallel <= 0 {
		return errorf("defaults.max_parallel must be positive")
	}
	return nil
}

// WriteState serializes state back to TOML at path, via a temp file and
// rename so a crash never leaves a half-written manifest.
func WriteState(state *State, path string) error {
	if err := state.Validate(); err != nil {
		return err
	}
	document := deepCopyMap(state.TopLevelExtras)
	document["defaults"] = state.Defaults.toMap()
	hosts := make([]any, len(state.Hosts))
	for i, host := range state.Hosts {
		hosts[i] = host.toMap()
	}
	document["hosts"] = hosts

	encoded, err := toml.Marshal(document)
	if err != nil {
		return errorf("manifest could not be encoded: %v", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".proxmox-hosts-*.toml")
	if err != nil {
		return errorf("manifest could not be written: %v", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errorf("manifest could not be written: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errorf("manifest could not be written: %v", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errorf("manifest could not be written: %v", err)
	}
	return nil
}

func (f DefaultsForm) toMap() map[string]any {
	result := deepCopyMap(f.Extras)
	result["user"] = f.User
	result["guest_user"] = f.GuestUser
	if f.IdentityFile != "" {
		result["identity_file"] = f.IdentityFile
	}
	if f.GuestIdentityFile != "" {
		result["guest_identity_file"] = f.GuestIdentityFile
	}
	if len(f.SSHExtraArgs) > 0 {
		result["ssh_extra_args"] = toAnySlice(f.SSHExtraArgs)
	}
	if len(f.GuestSSHExtraArgs) > 0 {
		result["guest_ssh_extra_args"] = toAnySlice(f.GuestSSHExtraArgs)
	}
	result["max_parallel"] = int64(f.MaxParallel)
	result["dry_run"] = f.DryRun
	return result
}

func (f HostForm) toMap() map[string]any {
	result := deepCopyMap(f.Extras)
	result["name"] = f.Name
	result["host"] = f.Host
	if f.User != "" {
		result["user"] = f.User
	}
	if f.GuestSSHExtraArgs != nil {
		result["guest_ssh_extra_args"] = toAnySlice(f.GuestSSHExtraArgs)
	}
	if f.MaxParallel > 0 {
		result["max_parallel"] = int64(f.MaxParallel)
	}
	if f.DryRun != nil {
		result["dry_run"] = *f.DryRun
	}
	return result
}

func toAnySlice(values []string) []any {
	result := make([]any, len(values))
	for i, value := range values {
		result[i] = value
	}
	return result
}

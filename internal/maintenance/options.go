// Package maintenance drives the stop/backup/start/upgrade lifecycle for every
// guest on a Proxmox host, with bounded parallelism.
package maintenance

// RunOptions is the complete input contract for one host's maintenance pass.
// It is constructed once by the CLI or batch layer and passed down unchanged.
type RunOptions struct {
	Host              string
	User              string
	IdentityFile      string
	SSHExtraArgs      []string
	GuestUser         string
	GuestIdentityFile string
	GuestSSHExtraArgs []string
	MaxParallel       int
	DryRun            bool
}

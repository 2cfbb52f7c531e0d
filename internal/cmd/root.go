// Package cmd wires the proxmoxctl command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pvetools/proxmoxctl/internal/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "proxmoxctl",
	Short: "Proxmox maintenance toolkit",
	Long: `Proxmoxctl automates fleet maintenance for Proxmox hosts.

For each host it stops, backs up, and restarts every VM and container,
upgrades guest operating systems over SSH, and finishes with a host-level
package upgrade.

Run one host:
  proxmoxctl maintenance run proxmox.example.com

Run every host in a manifest:
  proxmoxctl batch run --manifest proxmox-hosts.toml

Edit the manifest interactively:
  proxmoxctl wizard run
  proxmoxctl inventory configure`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

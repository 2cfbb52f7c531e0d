package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pvetools/proxmoxctl/internal/wizard"
)

var (
	inventoryManifest string
	inventoryHost     string
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Guest inventory commands",
}

var inventoryConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Discover guests on a host and record them in the manifest",
	Long: `Connect to a Proxmox host, list its VMs and containers, and let you
mark which guests should be managed. The result is written back into the
host's manifest entry.`,
	RunE: runInventoryConfigure,
}

func init() {
	inventoryConfigureCmd.Flags().StringVarP(&inventoryManifest, "manifest", "m", "", "path to the proxmox hosts manifest")
	inventoryConfigureCmd.Flags().StringVar(&inventoryHost, "host", "", "pre-select an existing host entry by name")

	inventoryCmd.AddCommand(inventoryConfigureCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func runInventoryConfigure(cmd *cobra.Command, args []string) error {
	manifestPath, err := resolveManifestPath(inventoryManifest)
	if err != nil {
		return err
	}
	builder := wizard.NewInventoryBuilder(manifestPath, inventoryHost)
	if err := builder.Run(cmd.Context()); err != nil {
		if errors.Is(err, wizard.ErrAborted) {
			return nil
		}
		return err
	}
	return nil
}

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pvetools/proxmoxctl/internal/wizard"
)

var wizardManifest string

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Manifest editing wizard",
}

var wizardRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Edit a proxmox-hosts manifest interactively",
	RunE:  runWizard,
}

func init() {
	wizardRunCmd.Flags().StringVarP(&wizardManifest, "manifest", "m", "", "path to the proxmox hosts manifest")

	wizardCmd.AddCommand(wizardRunCmd)
	rootCmd.AddCommand(wizardCmd)
}

func runWizard(cmd *cobra.Command, args []string) error {
	manifestPath, err := resolveManifestPath(wizardManifest)
	if err != nil {
		return err
	}
	if err := wizard.NewManifestWizard(manifestPath).Run(); err != nil {
		if errors.Is(err, wizard.ErrAborted) {
			return nil
		}
		return err
	}
	return nil
}

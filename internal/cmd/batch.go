package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pvetools/proxmoxctl/internal/batch"
	"github.com/pvetools/proxmoxctl/internal/config"
)

var (
	batchManifest    string
	batchHosts       []string
	batchLimit       int
	batchForceDryRun bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch maintenance commands",
}

var batchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run maintenance across every host in a manifest",
	Long: `Run maintenance across the hosts named in a proxmox-hosts manifest,
one host at a time.

Exit codes:
  0 - every host succeeded
  1 - manifest or configuration error
  3 - one or more hosts failed during maintenance`,
	RunE: runBatch,
}

func init() {
	batchRunCmd.Flags().StringVarP(&batchManifest, "manifest", "m", "", "path to the proxmox hosts manifest")
	batchRunCmd.Flags().StringArrayVar(&batchHosts, "host", []string{}, "limit execution to the named host (repeatable)")
	batchRunCmd.Flags().IntVar(&batchLimit, "limit", 0, "process at most N hosts from the filtered list")
	batchRunCmd.Flags().BoolVar(&batchForceDryRun, "force-dry-run", false, "force dry-run across every host regardless of manifest")

	batchCmd.AddCommand(batchRunCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	manifestPath, err := resolveManifestPath(batchManifest)
	if err != nil {
		return err
	}
	if batchLimit < 0 {
		return fmt.Errorf("limit must be greater than zero")
	}
	exitWith(batch.Run(cmd.Context(), batch.Options{
		ManifestPath: manifestPath,
		Hosts:        batchHosts,
		Limit:        batchLimit,
		ForceDryRun:  batchForceDryRun,
	}))
	return nil
}

// resolveManifestPath prefers the flag value, then the user config.
func resolveManifestPath(flagValue string) (string, error) {
	if flagValue != "" {
		return expandOptionalPath(flagValue)
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Manifest, nil
}

// exitWith terminates the process for nonzero codes so batch exit semantics
// (0/1/3) survive cobra's error handling.
func exitWith(code int) {
	if code != 0 {
		os.Exit(code)
	}
}

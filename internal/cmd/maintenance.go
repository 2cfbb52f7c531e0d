package cmd

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/pvetools/proxmoxctl/internal/config"
	"github.com/pvetools/proxmoxctl/internal/maintenance"
)

var (
	maintUser              string
	maintIdentityFile      string
	maintGuestUser         string
	maintGuestIdentityFile string
	maintSSHExtraArgs      []string
	maintGuestSSHExtraArgs []string
	maintMaxParallel       int
	maintDryRun            bool
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Guest lifecycle maintenance commands",
}

var maintenanceRunCmd = &cobra.Command{
	Use:   "run <host>",
	Short: "Run maintenance against a single Proxmox host",
	Long: `Run the full maintenance cycle against one Proxmox host: stop, backup,
and restart every VM and container, upgrade reachable guests over SSH, then
upgrade the host itself.

Examples:
  proxmoxctl maintenance run proxmox.example.com
  proxmoxctl maintenance run 10.0.0.5 --user root --dry-run
  proxmoxctl maintenance run pve1 --guest-user admin --max-parallel 4`,
	Args: cobra.ExactArgs(1),
	RunE: runMaintenance,
}

func init() {
	maintenanceRunCmd.Flags().StringVarP(&maintUser, "user", "u", "root", "Proxmox SSH user")
	maintenanceRunCmd.Flags().StringVar(&maintIdentityFile, "identity-file", "", "SSH identity for the Proxmox host")
	maintenanceRunCmd.Flags().StringVar(&maintGuestUser, "guest-user", "root", "guest SSH user")
	maintenanceRunCmd.Flags().StringVar(&maintGuestIdentityFile, "guest-identity-file", "", "guest SSH identity file")
	maintenanceRunCmd.Flags().StringArrayVar(&maintSSHExtraArgs, "ssh-extra-arg", []string{}, "additional ssh arguments for the host connection (repeatable)")
	maintenanceRunCmd.Flags().StringArrayVar(&maintGuestSSHExtraArgs, "guest-ssh-extra-arg", []string{}, "additional ssh arguments for guest connections (repeatable)")
	maintenanceRunCmd.Flags().IntVar(&maintMaxParallel, "max-parallel", 2, "maximum concurrent guest operations")
	maintenanceRunCmd.Flags().BoolVar(&maintDryRun, "dry-run", false, "log actions without changing state")

	maintenanceCmd.AddCommand(maintenanceRunCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

// validateHostArgument rejects empty hosts and the classic mistake of passing
// an option where the host belongs.
func validateHostArgument(host string) (string, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return "", fmt.Errorf("host/IP address is required (example: proxmox.example.com)")
	}
	if strings.HasPrefix(trimmed, "-") {
		return "", fmt.Errorf("host parameter appears missing - provide the Proxmox host before options, e.g. `proxmoxctl maintenance run proxmox.example --dry-run`")
	}
	return trimmed, nil
}

func runMaintenance(cmd *cobra.Command, args []string) error {
	host, err := validateHostArgument(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cmd.Flags().Changed("user") {
		maintUser = cfg.Defaults.User
	}
	if !cmd.Flags().Changed("guest-user") {
		maintGuestUser = cfg.Defaults.GuestUser
	}
	if !cmd.Flags().Changed("max-parallel") {
		maintMaxParallel = cfg.Defaults.MaxParallel
	}
	if maintMaxParallel < 1 {
		return fmt.Errorf("max-parallel must be at least 1")
	}

	identityFile, err := expandOptionalPath(maintIdentityFile)
	if err != nil {
		return err
	}
	guestIdentityFile, err := expandOptionalPath(maintGuestIdentityFile)
	if err != nil {
		return err
	}

	options := maintenance.RunOptions{
		Host:              host,
		User:              maintUser,
		IdentityFile:      identityFile,
		SSHExtraArgs:      maintSSHExtraArgs,
		GuestUser:         maintGuestUser,
		GuestIdentityFile: guestIdentityFile,
		GuestSSHExtraArgs: maintGuestSSHExtraArgs,
		MaxParallel:       maintMaxParallel,
		DryRun:            maintDryRun,
	}
	exitWith(maintenance.Run(cmd.Context(), options))
	return nil
}

func expandOptionalPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	return expanded, nil
}

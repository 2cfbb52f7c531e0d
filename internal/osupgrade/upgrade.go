// Package osupgrade performs best-effort operating system package upgrades on
// remote hosts and guests, keyed off /etc/os-release.
package osupgrade

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// ParseOSRelease parses KEY=value lines from /etc/os-release content,
// stripping surrounding quotes. Comments and malformed lines are skipped.
func ParseOSRelease(content string) map[string]string {
	data := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, "'")
		data[key] = value
	}
	return data
}

// DeterminePackageManager maps ID and ID_LIKE tokens to a package manager
// name. Returns "" when the OS family is not recognized.
func DeterminePackageManager(osRelease map[string]string) string {
	candidates := map[string]bool{
		strings.ToLower(osRelease["ID"]): true,
	}
	for _, token := range strings.Fields(strings.ToLower(osRelease["ID_LIKE"])) {
		candidates[token] = true
	}
	switch {
	case candidates["alpine"]:
		return "apk"
	case candidates["debian"] || candidates["ubuntu"]:
		return "apt"
	case candidates["fedora"] || candidates["rhel"] || candidates["centos"]:
		return "dnf"
	case candidates["arch"]:
		return "pacman"
	case candidates["suse"] || candidates["opensuse"] || candidates["sles"]:
		return "zypper"
	}
	return ""
}

// BuildUpgradeCommand returns the non-interactive upgrade command line for the
// given package manager, sudo-prefixed when requested.
func BuildUpgradeCommand(packageManager string, useSudo bool) (string, error) {
	prefix := ""
	if useSudo {
		prefix = "sudo "
	}
	switch packageManager {
	case "apt":
		return fmt.Sprintf("%[1]sapt update && %[1]sapt full-upgrade -y && %[1]sapt autoremove -y", prefix), nil
	case "dnf":
		return prefix + "dnf upgrade --refresh -y", nil
	case "apk":
		return fmt.Sprintf("%[1]sapk update && %[1]sapk upgrade", prefix), nil
	case "pacman":
		return prefix + "pacman -Syu --noconfirm", nil
	case "zypper":
		return fmt.Sprintf("%[1]szypper refresh && %[1]szypper update -y", prefix), nil
	}
	return "", fmt.Errorf("unsupported package manager: %s", packageManager)
}

// UpgradeGuestOS runs a best-effort upgrade through session. It never returns
// an error: any failure is logged and reported as false. The os-release read
// is read-only and executes even under dry-run.
func UpgradeGuestOS(ctx context.Context, session sshexec.Runner) bool {
	release, err := session.Run(ctx, "cat /etc/os-release", sshexec.RunOpts{Capture: true})
	if err != nil {
		log.Error("guest-os-release-error", "session", session.Label(), "error", err)
		return false
	}
	osRelease := ParseOSRelease(release.Stdout)
	packageManager := DeterminePackageManager(osRelease)
	if packageManager == "" {
		log.Warn("guest-os-unsupported", "session", session.Label())
		return false
	}
	command, err := BuildUpgradeCommand(packageManager, session.User() != "root")
	if err != nil {
		log.Error("guest-upgrade-failed", "session", session.Label(), "error", err)
		return false
	}
	if _, err := session.Run(ctx, command, sshexec.RunOpts{Mutable: true}); err != nil {
		log.Error("guest-upgrade-failed", "session", session.Label(), "error", err)
		return false
	}
	return true
}

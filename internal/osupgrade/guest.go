package osupgrade

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/pvetools/proxmoxctl/internal/sshexec"
)

// Upgrader drives best-effort guest upgrades. The zero value is not usable;
// construct it with NewUpgrader. Session construction and the alternate
// username prompt are injectable for tests.
type Upgrader struct {
	newSession func(sshexec.Config) sshexec.Runner
	promptUser func(target, previousUser string) string
}

// NewUpgrader returns an Upgrader backed by real SSH sessions and an
// interactive terminal prompt.
func NewUpgrader() *Upgrader {
	return &Upgrader{
		newSession: func(cfg sshexec.Config) sshexec.Runner { return sshexec.NewSession(cfg) },
		promptUser: PromptForAlternateUsername,
	}
}

// NewUpgraderWithHooks is a test constructor.
func NewUpgraderWithHooks(
	newSession func(sshexec.Config) sshexec.Runner,
	promptUser func(target, previousUser string) string,
) *Upgrader {
	return &Upgrader{newSession: newSession, promptUser: promptUser}
}

// AttemptGuestUpgrade connects to ip as defaultUser and runs a best-effort OS
// upgrade. When the first attempt fails and a terminal is attached, it prompts
// once for an alternate username and retries with a fresh session. Failures
// never propagate to the caller.
func (u *Upgrader) AttemptGuestUpgrade(
	ctx context.Context,
	ip string,
	defaultUser string,
	options sshexec.GuestOptions,
	dryRun bool,
	identifier string,
) {
	session := u.newSession(sshexec.Config{
		Host:         ip,
		User:         defaultUser,
		DryRun:       dryRun,
		IdentityFile: options.IdentityFile,
		ExtraArgs:    options.ExtraArgs,
		Label:        identifier,
	})
	if UpgradeGuestOS(ctx, session) {
		return
	}
	alternateUser := u.promptUser(ip, defaultUser)
	if alternateUser == "" {
		return
	}
	retry := u.newSession(sshexec.Config{
		Host:         ip,
		User:         alternateUser,
		DryRun:       dryRun,
		IdentityFile: options.IdentityFile,
		ExtraArgs:    options.ExtraArgs,
		Label:        identifier + "-retry",
	})
	UpgradeGuestOS(ctx, retry)
}

// PromptForAlternateUsername asks for a different SSH username after a failed
// attempt. Non-interactive contexts skip the prompt and return "".
func PromptForAlternateUsername(target, previousUser string) string {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		log.Warn("prompt-unavailable", "target", target)
		return ""
	}
	var newUser string
	prompt := &survey.Input{
		Message: fmt.Sprintf(
			"SSH to %s failed for user '%s'. Enter alternate username (leave blank to skip):",
			target, previousUser,
		),
	}
	if err := survey.AskOne(prompt, &newUser); err != nil {
		return ""
	}
	return strings.TrimSpace(newUser)
}

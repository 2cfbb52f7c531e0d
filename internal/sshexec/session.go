// Package sshexec runs shell commands on remote hosts over the OpenSSH CLI,
// with dry-run semantics for mutating commands.
package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultSSHOptions is the non-interactive connection baseline applied to every
// session. Host-key checking is disabled on purpose: fleet runs must work
// unattended against hosts that were never trust-anchored. This is a documented
// security trade-off, not a knob.
var DefaultSSHOptions = []string{
	"-o", "BatchMode=yes",
	"-o", "StrictHostKeyChecking=no",
	"-o", "UserKnownHostsFile=/dev/null",
	"-o", "ConnectTimeout=15",
}

// CommandResult holds the captured output of one remote command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandError reports a remote command that failed to execute, exited
// non-zero, or timed out.
type CommandError struct {
	Session  string
	Command  string
	ExitCode int
	Stderr   string
	Timeout  bool
	Err      error
}

func (e *CommandError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("command timed out on %s: %s", e.Session, e.Command)
	}
	msg := fmt.Sprintf("command failed (%d) on %s: %s", e.ExitCode, e.Session, e.Command)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// GuestOptions carries the SSH parameters applied uniformly to every guest a
// maintenance run touches.
type GuestOptions struct {
	User         string
	IdentityFile string
	ExtraArgs    []string
}

// RunOpts controls a single remote command execution.
type RunOpts struct {
	// Capture collects stdout into the result. Stderr is always captured.
	Capture bool
	// Mutable marks commands that change remote state; they are skipped
	// under dry-run.
	Mutable bool
	// NoCheck disables the non-zero exit status error.
	NoCheck bool
	// Timeout kills the remote process after the given duration. Zero means
	// no per-command timeout.
	Timeout time.Duration
}

// Runner executes remote commands. Implemented by *Session and by test fakes.
type Runner interface {
	Run(ctx context.Context, remoteCmd string, opts RunOpts) (CommandResult, error)
	User() string
	DryRun() bool
	Label() string
}

// Config describes one remote endpoint. All fields except Label are fixed for
// the session's lifetime.
type Config struct {
	Host         string
	User         string
	DryRun       bool
	IdentityFile string
	ExtraArgs    []string
	// Label is a human-readable session name used in logs. Defaults to
	// "remote".
	Label string
}

// Session executes commands over SSH with optional dry-run semantics.
type Session struct {
	host         string
	user         string
	dryRun       bool
	identityFile string
	extraArgs    []string
	label        string
}

// NewSession builds a session from cfg. The session holds no state beyond its
// construction parameters.
func NewSession(cfg Config) *Session {
	label := cfg.Label
	if label == "" {
		label = "remote"
	}
	return &Session{
		host:         cfg.Host,
		user:         cfg.User,
		dryRun:       cfg.DryRun,
		identityFile: cfg.IdentityFile,
		extraArgs:    append([]string(nil), cfg.ExtraArgs...),
		label:        label,
	}
}

func (s *Session) User() string  { return s.user }
func (s *Session) DryRun() bool  { return s.dryRun }
func (s *Session) Label() string { return s.label }

// Run executes remoteCmd on the session host. Mutable commands under dry-run
// are logged and return a synthetic zero-exit result without any network call;
// read-only commands always execute so state can still be observed.
func (s *Session) Run(ctx context.Context, remoteCmd string, opts RunOpts) (CommandResult, error) {
	if s.dryRun && opts.Mutable {
		log.Info("ssh-dry-run", "session", s.label, "command", remoteCmd)
		return CommandResult{ExitCode: 0}, nil
	}
	log.Debug("ssh-exec", "session", s.label, "command", remoteCmd)

	args := make([]string, 0, len(DefaultSSHOptions)+len(s.extraArgs)+4)
	args = append(args, DefaultSSHOptions...)
	if s.identityFile != "" {
		args = append(args, "-i", s.identityFile)
	}
	args = append(args, s.extraArgs...)
	args = append(args, fmt.Sprintf("%s@%s", s.user, s.host), remoteCmd)

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "ssh", args...)
	var stdout, stderr bytes.Buffer
	if opts.Capture {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return CommandResult{}, &CommandError{
			Session: s.label,
			Command: remoteCmd,
			Timeout: true,
			Err:     runCtx.Err(),
		}
	}

	result := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return CommandResult{}, &CommandError{
				Session: s.label,
				Command: remoteCmd,
				Stderr:  result.Stderr,
				Err:     err,
			}
		}
	}
	if !opts.NoCheck && result.ExitCode != 0 {
		return result, &CommandError{
			Session:  s.label,
			Command:  remoteCmd,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result, nil
}

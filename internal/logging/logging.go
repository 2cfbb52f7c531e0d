// Package logging configures the process-wide structured logger.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the default logger. Verbose enables debug-level events
// (per-command ssh-exec traces); everything else logs at info.
func Setup(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

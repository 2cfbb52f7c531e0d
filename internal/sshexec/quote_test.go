package sshexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain word", "qm", "qm"},
		{"empty string", "", "''"},
		{"path stays bare", "/etc/os-release", "/etc/os-release"},
		{"space forces quoting", "hello world", "'hello world'"},
		{"shell metacharacters", "a&&b", "'a&&b'"},
		{"embedded single quote", "it's", `'it'"'"'s'`},
		{"option flag", "--output-format", "--output-format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Quote(tt.input))
		})
	}
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "qm shutdown 100 --timeout 120", ShellJoin("qm", "shutdown", "100", "--timeout", "120"))
	assert.Equal(t, "pct exec 200 -- hostname -I", ShellJoin("pct", "exec", "200", "--", "hostname", "-I"))
	assert.Equal(t, "echo 'hello world'", ShellJoin("echo", "hello world"))
}

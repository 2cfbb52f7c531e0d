package sshexec

import "strings"

// safeChars is the POSIX "no quoting needed" set; anything outside it forces
// single-quote wrapping.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./-_"

// Quote wraps value in single quotes when it contains shell metacharacters.
func Quote(value string) string {
	if value == "" {
		return "''"
	}
	needsQuoting := false
	for _, r := range value {
		if !strings.ContainsRune(safeChars, r) {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

// ShellJoin quotes each part and joins them into one remote command line.
func ShellJoin(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = Quote(part)
	}
	return strings.Join(quoted, " ")
}

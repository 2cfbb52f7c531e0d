package maintenance

import (
	"strconv"
	"strings"
)

// IsIPv4Address reports whether value is a dotted quad with each octet in
// 0-255.
func IsIPv4Address(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// ExtractIPv4 scans whitespace-separated tokens for the first valid IPv4
// address and returns it, or "" when none is found.
func ExtractIPv4(output string) string {
	for _, token := range strings.Fields(output) {
		if IsIPv4Address(token) {
			return token
		}
	}
	return ""
}

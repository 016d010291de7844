package helpers

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsDigits reports whether s is a non-empty run of ASCII decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

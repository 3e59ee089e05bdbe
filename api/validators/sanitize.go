package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the length of
// free-text input before it reaches the service layer.
func SanitizeString(input string, maxLen int) string {
	out := strings.TrimSpace(input)
	if maxLen <= 0 || len(out) <= maxLen {
		return out
	}
	return out[:maxLen]
}

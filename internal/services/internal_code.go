package services

import (
	"regexp"
	"strings"
)

var internalCodePattern = regexp.MustCompile(`^M[0-9]*[13579]$`)

// FormatInternalCode keeps the digits of raw and prefixes them with "M".
// Input without digits formats to the empty string.
func FormatInternalCode(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "M" + b.String()
}

// ValidateInternalCode accepts an empty code or one ending in an odd digit.
func ValidateInternalCode(code string) error {
	if code == "" || internalCodePattern.MatchString(code) {
		return nil
	}
	return reject(RuleInternalCode, "internal code %q must end with an odd digit", code)
}

// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address so it can be compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(SanitizeInput(email))
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// NormalizeApproverList normalizes an ordered approver list, rejecting empty
// lists, malformed addresses and duplicates. Order is preserved.
func NormalizeApproverList(emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, Validationf("approver list is empty")
	}

	seen := make(map[string]struct{}, len(emails))
	normalized := make([]string, 0, len(emails))
	for _, raw := range emails {
		email := NormalizeEmail(raw)
		if !ValidateEmail(email) {
			return nil, Validationf("invalid approver email %q", raw)
		}
		if _, dup := seen[email]; dup {
			return nil, Validationf("approver %s listed more than once", email)
		}
		seen[email] = struct{}{}
		normalized = append(normalized, email)
	}
	return normalized, nil
}

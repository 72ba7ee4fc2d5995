package util

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// projectIDChars matches only lowercase letters, digits, and hyphens.
var projectIDChars = regexp.MustCompile(`^[a-z0-9-]+$`)

// displayNameChars matches letters, digits, spaces, hyphens, single quotes,
// double quotes, and exclamation points.
var displayNameChars = regexp.MustCompile(`^[\p{L}\p{N} '"!-]+$`)

// ValidateProjectID checks that id is an acceptable Google Cloud project ID:
//   - 6 to 30 characters
//   - Only lowercase letters, digits, and hyphens
//   - First character must be a letter
//   - Last character must not be a hyphen
func ValidateProjectID(id string) error {
	if len(id) < 6 || len(id) > 30 {
		return fmt.Errorf("project ID must be 6 to 30 characters, got %d", len(id))
	}

	if !projectIDChars.MatchString(id) {
		return fmt.Errorf("project ID %q contains invalid characters (only a-z, 0-9, and hyphens are allowed)", id)
	}

	if first := id[0]; first < 'a' || first > 'z' {
		return fmt.Errorf("project ID must start with a lowercase letter, got %q", string(first))
	}

	if id[len(id)-1] == '-' {
		return fmt.Errorf("project ID must not end with a hyphen")
	}

	return nil
}

// ValidateDisplayName checks the human-readable project name: 4 to 30
// characters drawn from letters, digits, spaces, quotes, hyphens and
// exclamation points.
func ValidateDisplayName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 4 || n > 30 {
		return fmt.Errorf("display name must be 4 to 30 characters, got %d", n)
	}
	if !displayNameChars.MatchString(name) {
		return fmt.Errorf("display name %q contains invalid characters", name)
	}
	return nil
}

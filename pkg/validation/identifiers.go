package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	identifierRegex = regexp.MustCompile(`^[a-z0-9-]{3,20}$`)
	urlRegex        = regexp.MustCompile(`^https?://.+\..+`)
)

// NormalizeIdentifier converts an identifier to lowercase and validates format.
// Valid identifiers are 3-20 characters containing only lowercase letters, numbers, and hyphens.
func NormalizeIdentifier(value string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(value))
	if !identifierRegex.MatchString(normalized) {
		return "", fmt.Errorf("invalid identifier. Use 3-20 lowercase characters (letters, numbers, hyphens)")
	}
	return normalized, nil
}

// NormalizeURL trims a media URL and validates it looks like an http(s) URL.
func NormalizeURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !urlRegex.MatchString(trimmed) {
		return "", fmt.Errorf("invalid URL. Use a full http(s) address")
	}
	return trimmed, nil
}

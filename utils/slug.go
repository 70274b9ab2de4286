package utils

import "strings"

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

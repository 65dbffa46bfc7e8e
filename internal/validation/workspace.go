// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var workspaceSlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,24}$`)

var reservedWorkspaceSlugs = map[string]struct{}{
	"admin":      {},
	"api":        {},
	"auth":       {},
	"settings":   {},
	"workspaces": {},
	"w":          {},
	"users":      {},
	"challenges": {},
	"rewards":    {},
	"webhooks":   {},
	"metrics":    {},
	"health":     {},
	"login":      {},
	"signup":     {},
}

// ValidateWorkspaceSlug validates workspace slug format and reserved names.
func ValidateWorkspaceSlug(slug string) error {
	if !workspaceSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-24 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedWorkspaceSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}

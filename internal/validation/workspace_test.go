package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateWorkspaceSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{"Valid", "acme-quests", false},
		{"Valid With Digits", "team-42", false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 25), true},
		{"Uppercase", "Acme", true},
		{"Leading Hyphen", "-acme", true},
		{"Trailing Hyphen", "acme-", true},
		{"Reserved", "admin", true},
		{"Reserved Webhooks", "webhooks", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkspaceSlug(tt.slug)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

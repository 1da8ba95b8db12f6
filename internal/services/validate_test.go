package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	rules := DefaultCredentialRules()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "valid_name1", want: "valid_name1"},
		{name: "trimmed", input: "  alice_1  ", want: "alice_1"},
		{name: "minimum length", input: "abc", want: "abc"},
		{name: "maximum length", input: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "too short", input: "ab", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 51), wantErr: true},
		{name: "inner space", input: "bad name", wantErr: true},
		{name: "dash", input: "bad-name", wantErr: true},
		{name: "unicode", input: "bäd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := rules.ValidateUsername(tt.input)
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "username", validationErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	rules := DefaultCredentialRules()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "pass123"},
		{name: "minimum length", input: "p123"},
		{name: "maximum hashable length", input: strings.Repeat("p", 72)},
		{name: "symbols allowed", input: "p@ss!w0rd#"},
		{name: "empty", input: "", wantErr: true},
		{name: "too short", input: "abc", wantErr: true},
		{name: "over bcrypt limit", input: strings.Repeat("p", 73), wantErr: true},
		{name: "configured max beyond bcrypt limit", input: strings.Repeat("p", 100), wantErr: true},
		{name: "too long", input: strings.Repeat("p", 101), wantErr: true},
		{name: "contains space", input: "has space", wantErr: true},
		{name: "leading space", input: " pass", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := rules.ValidatePassword(tt.input)
			if tt.wantErr {
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, "password", validationErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got)
		})
	}
}

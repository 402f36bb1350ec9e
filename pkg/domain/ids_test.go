package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "launchpad/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProgramID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects the nil uuid", func(t *testing.T) {
		_, err := ParseProgramID("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, raw := range []string{"not-a-uuid", "1234", strings.Repeat("a", 100)} {
			_, err := ParseProgramID(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})

	t.Run("accepts a valid uuid", func(t *testing.T) {
		raw := uuid.NewString()
		parsed, err := ParseProgramID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, parsed.String())
		assert.False(t, parsed.IsZero())
	})
}

func TestIsZero(t *testing.T) {
	assert.True(t, OrganizationID{}.IsZero())
	assert.True(t, CardID{}.IsZero())
	assert.False(t, StartupID(uuid.New()).IsZero())
}

// Typed IDs share one validation path; every parser must agree on what it
// accepts.
func TestParseConsistencyAcrossTypes(t *testing.T) {
	inputs := []string{uuid.NewString(), "", "invalid", "00000000-0000-0000-0000-000000000000"}

	for _, raw := range inputs {
		_, errOrg := ParseOrganizationID(raw)
		_, errProgram := ParseProgramID(raw)
		_, errStage := ParseStageID(raw)
		_, errCard := ParseCardID(raw)
		_, errStartup := ParseStartupID(raw)
		_, errRule := ParseRuleID(raw)
		_, errUser := ParseUserID(raw)

		accepted := errOrg == nil
		for _, err := range []error{errProgram, errStage, errCard, errStartup, errRule, errUser} {
			assert.Equal(t, accepted, err == nil, "inconsistent parsing for %q", raw)
		}
	}
}

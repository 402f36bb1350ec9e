package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
)

func ptr[T any](v T) *T { return &v }

func TestNewStartup(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	st, err := NewStartup(id.StartupID(uuid.New()), id.OrganizationID(uuid.New()), "Rocketry", now)
	require.NoError(t, err)
	assert.Equal(t, 0, st.ProfileFilledPercentage)
	assert.Equal(t, now, st.CreatedAt)

	_, err = NewStartup(id.StartupID(uuid.New()), id.OrganizationID(uuid.New()), "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewStartup(id.StartupID(uuid.New()), id.OrganizationID(uuid.New()), strings.Repeat("x", 129), now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestRecomputeFilledPercentage(t *testing.T) {
	t.Run("empty profile is zero", func(t *testing.T) {
		st := &Startup{}
		st.RecomputeFilledPercentage()
		assert.Equal(t, 0, st.ProfileFilledPercentage)
	})

	t.Run("half filled", func(t *testing.T) {
		st := &Startup{
			Vertical:          ptr("fintech"),
			BusinessModel:     ptr("saas"),
			EmployeesQuantity: ptr(12),
			AlreadyEarning:    ptr(true),
		}
		st.RecomputeFilledPercentage()
		assert.Equal(t, 50, st.ProfileFilledPercentage)
	})

	t.Run("empty strings and slices do not count", func(t *testing.T) {
		st := &Startup{
			Vertical:      ptr(""),
			Pitch:         ptr(""),
			TargetMarkets: []string{},
		}
		st.RecomputeFilledPercentage()
		assert.Equal(t, 0, st.ProfileFilledPercentage)
	})

	t.Run("full profile is exactly one hundred", func(t *testing.T) {
		st := &Startup{
			Vertical:          ptr("fintech"),
			BusinessModel:     ptr("saas"),
			EmployeesQuantity: ptr(12),
			AlreadyEarning:    ptr(true),
			MonthlyRevenue:    ptr(80000.0),
			FoundationDate:    ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			TargetMarkets:     []string{"brazil"},
			Pitch:             ptr("we move money"),
		}
		st.RecomputeFilledPercentage()
		assert.Equal(t, 100, st.ProfileFilledPercentage)
	})
}

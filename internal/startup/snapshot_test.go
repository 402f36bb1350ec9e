package startup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelinemodels "launchpad/internal/pipeline/models"
	"launchpad/internal/startup/models"
)

func ptr[T any](v T) *T { return &v }

func TestBuildSnapshot(t *testing.T) {
	founded := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	st := &models.Startup{
		Vertical:          ptr("fintech"),
		EmployeesQuantity: ptr(12),
		AlreadyEarning:    ptr(true),
		MonthlyRevenue:    ptr(80000.0),
		FoundationDate:    ptr(founded),
		TargetMarkets:     []string{"brazil", "mexico"},
	}

	snapshot := BuildSnapshot(st)

	assert.Equal(t, pipelinemodels.StringValue("fintech"), snapshot["vertical"])
	assert.Equal(t, pipelinemodels.NumberValue(12), snapshot["employees_quantity"])
	assert.Equal(t, pipelinemodels.BoolValue(true), snapshot["already_earning"])
	assert.Equal(t, pipelinemodels.NumberValue(80000), snapshot["monthly_revenue"])
	assert.Equal(t, pipelinemodels.TimeValue(founded), snapshot["foundation_date"])
	assert.Equal(t, pipelinemodels.ListValue([]string{"brazil", "mexico"}), snapshot["target_markets"])

	// Unset attributes are omitted entirely, not emitted as zero values.
	_, ok := snapshot["business_model"]
	assert.False(t, ok)
	_, ok = snapshot["pitch"]
	assert.False(t, ok)
	require.Len(t, snapshot, 6)
}

func TestBuildSnapshotEmptyProfile(t *testing.T) {
	snapshot := BuildSnapshot(&models.Startup{})
	assert.Empty(t, snapshot)
}

func TestBuildSnapshotSkipsEmptyStrings(t *testing.T) {
	st := &models.Startup{
		Vertical: ptr(""),
		Pitch:    ptr(""),
	}
	snapshot := BuildSnapshot(st)
	assert.Empty(t, snapshot)
}

package pipeline_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/requestcontext"
)

func newEngine(f *boardFixture) *pipeline.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.NewEngine(f.store, pipeline.NewInMemoryStoreTx(f.store), nil, logger, nil)
}

func (f *boardFixture) addRule(t *testing.T, stageID id.StageID, key, target string) *models.Rule {
	t.Helper()
	rule, err := f.service.CreateRule(f.ctx, pipeline.CreateRuleInput{
		ProgramID:   f.program.ID,
		StageID:     stageID,
		Key:         key,
		FieldType:   models.FieldTypeSingleSelect,
		Rule:        target,
		Comparisons: []models.Comparison{models.ComparisonEqual},
		Options: []models.Option{
			{Value: "fintech", Label: "Fintech"},
			{Value: "healthtech", Label: "Health Tech"},
		},
	})
	require.NoError(t, err)
	return rule
}

func TestEvaluateStartup_IncompleteProfileGate(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)
	f.addRule(t, f.stages[1].ID, "vertical", "fintech")

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, startupID, 99, snapshot)
	require.NoError(t, err)
	assert.False(t, evaluation.Eligible)
	assert.Empty(t, evaluation.Transitions)

	// The card never moved.
	card, err := f.store.FindCardByStartupAndProgram(f.ctx, startupID, f.program.ID)
	require.NoError(t, err)
	assert.Equal(t, f.stages[0].ID, card.StageID)
}

func TestEvaluateStartup_MovesOnFirstMatch(t *testing.T) {
	f := newBoardFixture(t, 3)
	engine := newEngine(f)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)

	// Both rules pass; the one created first wins.
	first := f.addRule(t, f.stages[1].ID, "vertical", "fintech")
	f.addRule(t, f.stages[2].ID, "vertical", "fintech")

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, startupID, 100, snapshot)
	require.NoError(t, err)
	assert.True(t, evaluation.Eligible)
	require.Len(t, evaluation.Transitions, 1)

	transition := evaluation.Transitions[0]
	assert.True(t, transition.Moved)
	assert.Equal(t, first.ID, transition.RuleID)
	assert.Equal(t, f.stages[0].ID, transition.FromStageID)
	assert.Equal(t, f.stages[1].ID, transition.ToStageID)

	card, err := f.store.FindCardByStartupAndProgram(f.ctx, startupID, f.program.ID)
	require.NoError(t, err)
	assert.Equal(t, f.stages[1].ID, card.StageID)
}

func TestEvaluateStartup_AppendsAtDestinationEnd(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	f.addCard(t, f.stages[1].ID)
	f.addCard(t, f.stages[1].ID)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)
	f.addRule(t, f.stages[1].ID, "vertical", "fintech")

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, startupID, 100, snapshot)
	require.NoError(t, err)
	require.Len(t, evaluation.Transitions, 1)
	assert.Equal(t, 2, evaluation.Transitions[0].Position)

	order := f.stageOrder(t, f.stages[1].ID)
	require.Len(t, order, 3)

	card, err := f.store.FindCardByStartupAndProgram(f.ctx, startupID, f.program.ID)
	require.NoError(t, err)
	assert.Equal(t, card.ID, order[2])
}

func TestEvaluateStartup_SameStageMatchDoesNotMove(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)

	// The winning rule targets the stage the card is already in.
	f.addRule(t, f.stages[0].ID, "vertical", "fintech")

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, startupID, 100, snapshot)
	require.NoError(t, err)
	require.Len(t, evaluation.Transitions, 1)
	assert.False(t, evaluation.Transitions[0].Moved)
	assert.Equal(t, f.stages[0].ID, evaluation.Transitions[0].ToStageID)
}

func TestEvaluateStartup_NoRulePass(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)
	f.addRule(t, f.stages[1].ID, "vertical", "healthtech")

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, startupID, 100, snapshot)
	require.NoError(t, err)
	assert.True(t, evaluation.Eligible)
	assert.Empty(t, evaluation.Transitions)
}

func TestEvaluateStartup_SkipsEndedPrograms(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	startupID := id.StartupID(uuid.New())
	_, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)
	f.addRule(t, f.stages[1].ID, "vertical", "fintech")

	// Evaluate after the program's end date.
	after := requestcontext.WithTime(f.ctx, f.program.EndDate.Add(24*time.Hour))

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(after, startupID, 100, snapshot)
	require.NoError(t, err)
	assert.True(t, evaluation.Eligible)
	assert.Empty(t, evaluation.Transitions)
}

func TestEvaluateStartup_NoSubscriptions(t *testing.T) {
	f := newBoardFixture(t, 2)
	engine := newEngine(f)

	snapshot := models.Snapshot{"vertical": models.StringValue("fintech")}
	evaluation, err := engine.EvaluateStartup(f.ctx, id.StartupID(uuid.New()), 100, snapshot)
	require.NoError(t, err)
	assert.True(t, evaluation.Eligible)
	assert.Empty(t, evaluation.Transitions)
}

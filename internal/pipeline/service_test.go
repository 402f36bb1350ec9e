package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/models"
	pipelinestore "launchpad/internal/pipeline/store"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/requestcontext"
)

type boardFixture struct {
	store   *pipelinestore.InMemory
	service *pipeline.Service
	ctx     context.Context
	now     time.Time

	program *models.Program
	stages  []*models.Stage
}

func newBoardFixture(t *testing.T, stageCount int) *boardFixture {
	t.Helper()

	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	store := pipelinestore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := pipeline.NewService(store, pipeline.NewInMemoryStoreTx(store), logger)

	f := &boardFixture{store: store, service: service, ctx: ctx, now: now}

	program, err := service.CreateProgram(ctx, id.OrganizationID(uuid.New()), "Cohort 2026",
		now, now.AddDate(0, 6, 0))
	require.NoError(t, err)
	f.program = program

	names := []string{"Applied", "Screening", "Interview", "Accepted"}
	for i := 0; i < stageCount; i++ {
		stage, err := service.CreateStage(ctx, program.ID, names[i%len(names)])
		require.NoError(t, err)
		f.stages = append(f.stages, stage)
	}
	return f
}

// addCard seeds a card directly in the store at the end of the stage.
func (f *boardFixture) addCard(t *testing.T, stageID id.StageID) *models.Card {
	t.Helper()
	existing, err := f.store.ListCardsByStage(f.ctx, stageID)
	require.NoError(t, err)
	card := &models.Card{
		ID:        id.CardID(uuid.New()),
		StageID:   stageID,
		StartupID: id.StartupID(uuid.New()),
		Position:  len(existing),
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.store.CreateCard(f.ctx, card))
	return card
}

func (f *boardFixture) stageOrder(t *testing.T, stageID id.StageID) []id.CardID {
	t.Helper()
	cards, err := f.store.ListCardsByStage(f.ctx, stageID)
	require.NoError(t, err)
	out := make([]id.CardID, len(cards))
	for i, c := range cards {
		out[i] = c.ID
		assert.Equal(t, i, c.Position, "positions must be dense and zero-based")
	}
	return out
}

func TestMoveCard_SameStageReorder(t *testing.T) {
	f := newBoardFixture(t, 2)
	stage := f.stages[0]
	a := f.addCard(t, stage.ID)
	b := f.addCard(t, stage.ID)
	c := f.addCard(t, stage.ID)

	moved, err := f.service.MoveCard(f.ctx, c.ID, stage.ID, stage.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, stage.ID, moved.StageID)

	assert.Equal(t, []id.CardID{c.ID, a.ID, b.ID}, f.stageOrder(t, stage.ID))
}

func TestMoveCard_AcrossStages(t *testing.T) {
	f := newBoardFixture(t, 2)
	source, dest := f.stages[0], f.stages[1]
	a := f.addCard(t, source.ID)
	b := f.addCard(t, source.ID)
	x := f.addCard(t, dest.ID)
	y := f.addCard(t, dest.ID)

	moved, err := f.service.MoveCard(f.ctx, a.ID, source.ID, dest.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, dest.ID, moved.StageID)

	// Source closes the gap, destination absorbs the insert.
	assert.Equal(t, []id.CardID{b.ID}, f.stageOrder(t, source.ID))
	assert.Equal(t, []id.CardID{x.ID, a.ID, y.ID}, f.stageOrder(t, dest.ID))
}

func TestMoveCard_TargetIndexPastEndAppends(t *testing.T) {
	f := newBoardFixture(t, 2)
	source, dest := f.stages[0], f.stages[1]
	a := f.addCard(t, source.ID)
	x := f.addCard(t, dest.ID)

	moved, err := f.service.MoveCard(f.ctx, a.ID, source.ID, dest.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, []id.CardID{x.ID, a.ID}, f.stageOrder(t, dest.ID))
}

func TestMoveCard_NegativeIndexRejected(t *testing.T) {
	f := newBoardFixture(t, 2)
	a := f.addCard(t, f.stages[0].ID)

	_, err := f.service.MoveCard(f.ctx, a.ID, f.stages[0].ID, f.stages[1].ID, -1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestMoveCard_UnknownCardAbortsBeforeWrites(t *testing.T) {
	f := newBoardFixture(t, 2)
	stage := f.stages[0]
	a := f.addCard(t, stage.ID)
	b := f.addCard(t, stage.ID)

	_, err := f.service.MoveCard(f.ctx, id.CardID(uuid.New()), stage.ID, f.stages[1].ID, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	assert.Equal(t, []id.CardID{a.ID, b.ID}, f.stageOrder(t, stage.ID))
	assert.Empty(t, f.stageOrder(t, f.stages[1].ID))
}

func TestMoveCard_SourceStageMismatchConflicts(t *testing.T) {
	f := newBoardFixture(t, 3)
	a := f.addCard(t, f.stages[0].ID)

	_, err := f.service.MoveCard(f.ctx, a.ID, f.stages[1].ID, f.stages[2].ID, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestMoveCard_UnknownDestinationStage(t *testing.T) {
	f := newBoardFixture(t, 1)
	a := f.addCard(t, f.stages[0].ID)

	_, err := f.service.MoveCard(f.ctx, a.ID, f.stages[0].ID, id.StageID(uuid.New()), 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSubscribe(t *testing.T) {
	f := newBoardFixture(t, 2)
	startupID := id.StartupID(uuid.New())

	card, err := f.service.Subscribe(f.ctx, f.program.ID, startupID)
	require.NoError(t, err)
	assert.Equal(t, f.stages[0].ID, card.StageID)
	assert.Equal(t, 0, card.Position)

	// Second startup lands behind the first.
	second, err := f.service.Subscribe(f.ctx, f.program.ID, id.StartupID(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, second.Position)

	// Resubscribing the same startup conflicts.
	_, err = f.service.Subscribe(f.ctx, f.program.ID, startupID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestSubscribe_ProgramWithoutStages(t *testing.T) {
	f := newBoardFixture(t, 0)

	_, err := f.service.Subscribe(f.ctx, f.program.ID, id.StartupID(uuid.New()))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCreateProgram_Validation(t *testing.T) {
	f := newBoardFixture(t, 0)
	orgID := id.OrganizationID(uuid.New())

	_, err := f.service.CreateProgram(f.ctx, orgID, "", f.now, f.now.AddDate(0, 1, 0))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = f.service.CreateProgram(f.ctx, orgID, "Backwards", f.now, f.now.Add(-time.Hour))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestCreateRule(t *testing.T) {
	f := newBoardFixture(t, 2)

	valid := pipeline.CreateRuleInput{
		ProgramID:   f.program.ID,
		StageID:     f.stages[1].ID,
		Key:         "vertical",
		FieldType:   models.FieldTypeSingleSelect,
		Rule:        "fintech",
		Comparisons: []models.Comparison{models.ComparisonEqual},
		Options:     []models.Option{{Value: "fintech", Label: "Fintech"}},
	}

	t.Run("valid select rule", func(t *testing.T) {
		rule, err := f.service.CreateRule(f.ctx, valid)
		require.NoError(t, err)
		assert.Equal(t, f.stages[1].ID, rule.StageID)
	})

	t.Run("select rule rejects order operators", func(t *testing.T) {
		input := valid
		input.Comparisons = []models.Comparison{models.ComparisonGreaterThan}
		_, err := f.service.CreateRule(f.ctx, input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("select rule requires options", func(t *testing.T) {
		input := valid
		input.Options = nil
		_, err := f.service.CreateRule(f.ctx, input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown field type rejected", func(t *testing.T) {
		input := valid
		input.FieldType = models.FieldType("free_text")
		_, err := f.service.CreateRule(f.ctx, input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown comparison rejected", func(t *testing.T) {
		input := valid
		input.Comparisons = []models.Comparison{"approximately"}
		_, err := f.service.CreateRule(f.ctx, input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("numeric rule accepts order operators", func(t *testing.T) {
		input := pipeline.CreateRuleInput{
			ProgramID:   f.program.ID,
			StageID:     f.stages[1].ID,
			Key:         "employees_quantity",
			FieldType:   models.FieldTypeNumericInput,
			Rule:        "10",
			Comparisons: []models.Comparison{models.ComparisonGreaterThan},
		}
		_, err := f.service.CreateRule(f.ctx, input)
		assert.NoError(t, err)
	})

	t.Run("stage from another program conflicts", func(t *testing.T) {
		other := newBoardFixture(t, 1)
		input := valid
		input.StageID = other.stages[0].ID

		// The stage exists in the other fixture's store, not this one.
		_, err := f.service.CreateRule(f.ctx, input)
		assert.Error(t, err)
	})
}

func TestBoard(t *testing.T) {
	f := newBoardFixture(t, 2)
	a := f.addCard(t, f.stages[0].ID)
	b := f.addCard(t, f.stages[0].ID)

	board, err := f.service.Board(f.ctx, f.program.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, f.stages[0].ID, board[0].Stage.ID)
	require.Len(t, board[0].Cards, 2)
	assert.Equal(t, a.ID, board[0].Cards[0].ID)
	assert.Equal(t, b.ID, board[0].Cards[1].ID)
	assert.Empty(t, board[1].Cards)
}

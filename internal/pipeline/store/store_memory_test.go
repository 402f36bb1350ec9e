package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newProgram() *models.Program {
	return &models.Program{
		ID:             id.ProgramID(uuid.New()),
		OrganizationID: id.OrganizationID(uuid.New()),
		Name:           "Cohort 2026",
		StartDate:      s.now,
		EndDate:        s.now.AddDate(0, 6, 0),
		CreatedAt:      s.now,
		UpdatedAt:      s.now,
	}
}

func (s *InMemoryStoreSuite) newStage(programID id.ProgramID, order int) *models.Stage {
	return &models.Stage{
		ID:           id.StageID(uuid.New()),
		ProgramID:    programID,
		Name:         "Stage",
		DisplayOrder: order,
		CreatedAt:    s.now,
	}
}

func (s *InMemoryStoreSuite) newCard(stageID id.StageID, position int) *models.Card {
	return &models.Card{
		ID:        id.CardID(uuid.New()),
		StageID:   stageID,
		StartupID: id.StartupID(uuid.New()),
		Position:  position,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
}

func (s *InMemoryStoreSuite) TestProgramRoundTrip() {
	program := s.newProgram()
	s.Require().NoError(s.store.CreateProgram(s.ctx, program))

	found, err := s.store.FindProgram(s.ctx, program.ID)
	s.Require().NoError(err)
	s.Equal(program.Name, found.Name)

	// Mutating the result must not leak into the store.
	found.Name = "changed"
	again, err := s.store.FindProgram(s.ctx, program.ID)
	s.Require().NoError(err)
	s.Equal("Cohort 2026", again.Name)

	s.ErrorIs(s.store.CreateProgram(s.ctx, program), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestFindProgramNotFound() {
	_, err := s.store.FindProgram(s.ctx, id.ProgramID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListProgramsByOrganization() {
	first := s.newProgram()
	second := s.newProgram()
	second.OrganizationID = first.OrganizationID
	second.CreatedAt = s.now.Add(time.Minute)
	other := s.newProgram()

	s.Require().NoError(s.store.CreateProgram(s.ctx, first))
	s.Require().NoError(s.store.CreateProgram(s.ctx, second))
	s.Require().NoError(s.store.CreateProgram(s.ctx, other))

	programs, err := s.store.ListProgramsByOrganization(s.ctx, first.OrganizationID)
	s.Require().NoError(err)
	s.Require().Len(programs, 2)
	s.Equal(first.ID, programs[0].ID)
	s.Equal(second.ID, programs[1].ID)
}

func (s *InMemoryStoreSuite) TestListStagesOrderedByDisplayOrder() {
	program := s.newProgram()
	s.Require().NoError(s.store.CreateProgram(s.ctx, program))

	third := s.newStage(program.ID, 2)
	first := s.newStage(program.ID, 0)
	second := s.newStage(program.ID, 1)
	for _, stage := range []*models.Stage{third, first, second} {
		s.Require().NoError(s.store.CreateStage(s.ctx, stage))
	}

	stages, err := s.store.ListStages(s.ctx, program.ID)
	s.Require().NoError(err)
	s.Require().Len(stages, 3)
	s.Equal(first.ID, stages[0].ID)
	s.Equal(second.ID, stages[1].ID)
	s.Equal(third.ID, stages[2].ID)
}

func (s *InMemoryStoreSuite) TestListRulesPreservesInsertionOrder() {
	programID := id.ProgramID(uuid.New())
	var want []id.RuleID
	for i := 0; i < 5; i++ {
		rule := &models.Rule{
			ID:          id.RuleID(uuid.New()),
			ProgramID:   programID,
			StageID:     id.StageID(uuid.New()),
			Key:         "vertical",
			FieldType:   models.FieldTypeSingleSelect,
			Rule:        "fintech",
			Comparisons: []models.Comparison{models.ComparisonEqual},
			CreatedAt:   s.now,
		}
		s.Require().NoError(s.store.CreateRule(s.ctx, rule))
		want = append(want, rule.ID)
	}

	rules, err := s.store.ListRules(s.ctx, programID)
	s.Require().NoError(err)
	s.Require().Len(rules, len(want))
	for i, rule := range rules {
		s.Equal(want[i], rule.ID)
	}
}

func (s *InMemoryStoreSuite) TestListCardsByStageOrderedByPosition() {
	stageID := id.StageID(uuid.New())
	second := s.newCard(stageID, 1)
	first := s.newCard(stageID, 0)
	s.Require().NoError(s.store.CreateCard(s.ctx, second))
	s.Require().NoError(s.store.CreateCard(s.ctx, first))

	cards, err := s.store.ListCardsByStage(s.ctx, stageID)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Equal(first.ID, cards[0].ID)
	s.Equal(second.ID, cards[1].ID)
}

func (s *InMemoryStoreSuite) TestReorderStage() {
	source := id.StageID(uuid.New())
	dest := id.StageID(uuid.New())
	a := s.newCard(source, 0)
	b := s.newCard(source, 1)
	s.Require().NoError(s.store.CreateCard(s.ctx, a))
	s.Require().NoError(s.store.CreateCard(s.ctx, b))

	// Moving b across stages rewrites its stage and position.
	s.Require().NoError(s.store.ReorderStage(s.ctx, dest, []id.CardID{b.ID}))
	s.Require().NoError(s.store.ReorderStage(s.ctx, source, []id.CardID{a.ID}))

	moved, err := s.store.FindCard(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(dest, moved.StageID)
	s.Equal(0, moved.Position)

	stayed, err := s.store.FindCard(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(source, stayed.StageID)
	s.Equal(0, stayed.Position)
}

func (s *InMemoryStoreSuite) TestReorderStageUnknownCard() {
	err := s.store.ReorderStage(s.ctx, id.StageID(uuid.New()), []id.CardID{id.CardID(uuid.New())})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindCardByStartupAndProgram() {
	program := s.newProgram()
	s.Require().NoError(s.store.CreateProgram(s.ctx, program))
	stage := s.newStage(program.ID, 0)
	s.Require().NoError(s.store.CreateStage(s.ctx, stage))
	card := s.newCard(stage.ID, 0)
	s.Require().NoError(s.store.CreateCard(s.ctx, card))

	found, err := s.store.FindCardByStartupAndProgram(s.ctx, card.StartupID, program.ID)
	s.Require().NoError(err)
	s.Equal(card.ID, found.ID)

	_, err = s.store.FindCardByStartupAndProgram(s.ctx, id.StartupID(uuid.New()), program.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListProgramsByStartup() {
	program := s.newProgram()
	s.Require().NoError(s.store.CreateProgram(s.ctx, program))
	stage := s.newStage(program.ID, 0)
	s.Require().NoError(s.store.CreateStage(s.ctx, stage))
	card := s.newCard(stage.ID, 0)
	s.Require().NoError(s.store.CreateCard(s.ctx, card))

	programs, err := s.store.ListProgramsByStartup(s.ctx, card.StartupID)
	s.Require().NoError(err)
	s.Require().Len(programs, 1)
	s.Equal(program.ID, programs[0].ID)
}

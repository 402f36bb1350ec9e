package pipeline

import (
	"context"

	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
)

// Store is the persistence port for boards: programs, stages, rules, and
// cards. Implementations: in-memory (default) and Postgres.
//
// Ordering contracts:
//   - ListStages returns stages ascending by display order.
//   - ListRules returns rules in insertion order; the engine's
//     first-match-wins semantics depend on it.
//   - ListCardsByStage returns cards ascending by position.
type Store interface {
	CreateProgram(ctx context.Context, program *models.Program) error
	FindProgram(ctx context.Context, programID id.ProgramID) (*models.Program, error)
	ListProgramsByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Program, error)
	// ListProgramsByStartup returns the programs the startup holds a card in.
	ListProgramsByStartup(ctx context.Context, startupID id.StartupID) ([]*models.Program, error)

	CreateStage(ctx context.Context, stage *models.Stage) error
	FindStage(ctx context.Context, stageID id.StageID) (*models.Stage, error)
	ListStages(ctx context.Context, programID id.ProgramID) ([]*models.Stage, error)

	CreateRule(ctx context.Context, rule *models.Rule) error
	ListRules(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error)

	CreateCard(ctx context.Context, card *models.Card) error
	FindCard(ctx context.Context, cardID id.CardID) (*models.Card, error)
	FindCardByStartupAndProgram(ctx context.Context, startupID id.StartupID, programID id.ProgramID) (*models.Card, error)
	ListCardsByStage(ctx context.Context, stageID id.StageID) ([]*models.Card, error)
	// ReorderStage rewrites stage membership and positions: every listed
	// card is assigned the given stage and its zero-based index as position.
	ReorderStage(ctx context.Context, stageID id.StageID, orderedCardIDs []id.CardID) error
}

// StoreTx provides the transactional boundary for card mutations. All
// position-ledger writes happen inside RunInTx so a mid-sequence failure
// rolls back completely, never leaving a gap or duplicate position.
// Implementations may wrap a database transaction or, in-memory, a lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// RuleSource supplies a program's rules in store order. The Redis cache
// satisfies it in front of the store; the store satisfies it directly.
type RuleSource interface {
	RulesForProgram(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error)
}

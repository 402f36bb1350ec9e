package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// dbtx abstracts *sql.DB and *sql.Tx so the same queries serve plain reads
// and the transactional ledger path.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists boards in PostgreSQL.
//
// Concurrency: two concurrent moves on the same stage serialize on the row
// locks their UPDATEs take inside the transaction; last-committed-wins, no
// retry logic.
type Postgres struct {
	db     dbtx
	logger *slog.Logger
}

// NewPostgres wraps a connection pool for non-transactional access.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// NewPostgresTx binds the store to an open transaction. All ledger writes
// go through a handle created here.
func NewPostgresTx(tx *sql.Tx, logger *slog.Logger) *Postgres {
	return &Postgres{db: tx, logger: logger}
}

func (s *Postgres) CreateProgram(ctx context.Context, program *models.Program) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (id, organization_id, name, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		program.ID.String(), program.OrganizationID.String(), program.Name,
		program.StartDate, program.EndDate, program.CreatedAt, program.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert program: %w", err)
	}
	return nil
}

func (s *Postgres) FindProgram(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, start_date, end_date, created_at, updated_at
		FROM programs WHERE id = $1`,
		programID.String(),
	)
	return scanProgram(row)
}

func (s *Postgres) ListProgramsByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, name, start_date, end_date, created_at, updated_at
		FROM programs WHERE organization_id = $1 ORDER BY created_at`,
		orgID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

func (s *Postgres) ListProgramsByStartup(ctx context.Context, startupID id.StartupID) ([]*models.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.organization_id, p.name, p.start_date, p.end_date, p.created_at, p.updated_at
		FROM programs p
		JOIN stages st ON st.program_id = p.id
		JOIN cards c ON c.stage_id = st.id
		WHERE c.startup_id = $1
		ORDER BY p.created_at`,
		startupID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list startup programs: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

func (s *Postgres) CreateStage(ctx context.Context, stage *models.Stage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (id, program_id, name, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		stage.ID.String(), stage.ProgramID.String(), stage.Name, stage.DisplayOrder, stage.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

func (s *Postgres) FindStage(ctx context.Context, stageID id.StageID) (*models.Stage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, program_id, name, display_order, created_at
		FROM stages WHERE id = $1`,
		stageID.String(),
	)
	stage := &models.Stage{}
	var stageIDRaw, programIDRaw string
	err := row.Scan(&stageIDRaw, &programIDRaw, &stage.Name, &stage.DisplayOrder, &stage.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find stage: %w", err)
	}
	if stage.ID, err = id.ParseStageID(stageIDRaw); err != nil {
		return nil, err
	}
	if stage.ProgramID, err = id.ParseProgramID(programIDRaw); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *Postgres) ListStages(ctx context.Context, programID id.ProgramID) ([]*models.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_id, name, display_order, created_at
		FROM stages WHERE program_id = $1 ORDER BY display_order`,
		programID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var out []*models.Stage
	for rows.Next() {
		stage := &models.Stage{}
		var stageIDRaw, programIDRaw string
		if err := rows.Scan(&stageIDRaw, &programIDRaw, &stage.Name, &stage.DisplayOrder, &stage.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		if stage.ID, err = id.ParseStageID(stageIDRaw); err != nil {
			return nil, err
		}
		if stage.ProgramID, err = id.ParseProgramID(programIDRaw); err != nil {
			return nil, err
		}
		out = append(out, stage)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateRule(ctx context.Context, rule *models.Rule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (id, program_id, stage_id, key, field_type, rule, comparation_type, options, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rule.ID.String(), rule.ProgramID.String(), rule.StageID.String(),
		rule.Key, string(rule.FieldType), rule.Rule,
		models.EncodeComparisons(rule.Comparisons), models.EncodeOptions(rule.Options),
		rule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// ListRules returns rules in insertion order (created_at, id as the
// tiebreaker); the engine's first-match-wins semantics depend on it.
func (s *Postgres) ListRules(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program_id, stage_id, key, field_type, rule, comparation_type, options, created_at
		FROM rules WHERE program_id = $1 ORDER BY created_at, id`,
		programID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*models.Rule
	for rows.Next() {
		rule := &models.Rule{}
		var ruleIDRaw, programIDRaw, stageIDRaw, fieldType, comparisons string
		var options sql.NullString
		if err := rows.Scan(&ruleIDRaw, &programIDRaw, &stageIDRaw, &rule.Key, &fieldType,
			&rule.Rule, &comparisons, &options, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if rule.ID, err = id.ParseRuleID(ruleIDRaw); err != nil {
			return nil, err
		}
		if rule.ProgramID, err = id.ParseProgramID(programIDRaw); err != nil {
			return nil, err
		}
		if rule.StageID, err = id.ParseStageID(stageIDRaw); err != nil {
			return nil, err
		}
		rule.FieldType = models.FieldType(fieldType)
		rule.Comparisons = models.DecodeComparisons(comparisons, s.logger)
		if options.Valid {
			rule.Options = models.DecodeOptions(options.String, s.logger)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *Postgres) CreateCard(ctx context.Context, card *models.Card) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, stage_id, startup_id, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		card.ID.String(), card.StageID.String(), card.StartupID.String(),
		card.Position, card.CreatedAt, card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (s *Postgres) FindCard(ctx context.Context, cardID id.CardID) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, stage_id, startup_id, position, created_at, updated_at
		FROM cards WHERE id = $1`,
		cardID.String(),
	)
	return scanCardRow(row)
}

func (s *Postgres) FindCardByStartupAndProgram(ctx context.Context, startupID id.StartupID, programID id.ProgramID) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.stage_id, c.startup_id, c.position, c.created_at, c.updated_at
		FROM cards c
		JOIN stages st ON st.id = c.stage_id
		WHERE c.startup_id = $1 AND st.program_id = $2
		LIMIT 1`,
		startupID.String(), programID.String(),
	)
	return scanCardRow(row)
}

func (s *Postgres) ListCardsByStage(ctx context.Context, stageID id.StageID) ([]*models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, stage_id, startup_id, position, created_at, updated_at
		FROM cards WHERE stage_id = $1 ORDER BY position`,
		stageID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

// ReorderStage rewrites stage membership and positions for the listed
// cards. Runs inside the caller's transaction; partial failure rolls the
// whole re-sequencing back.
func (s *Postgres) ReorderStage(ctx context.Context, stageID id.StageID, orderedCardIDs []id.CardID) error {
	for position, cardID := range orderedCardIDs {
		res, err := s.db.ExecContext(ctx, `
			UPDATE cards SET stage_id = $1, position = $2, updated_at = now()
			WHERE id = $3`,
			stageID.String(), position, cardID.String(),
		)
		if err != nil {
			return fmt.Errorf("reorder card %s: %w", cardID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reorder card %s: %w", cardID, err)
		}
		if affected == 0 {
			return sentinel.ErrNotFound
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(row rowScanner) (*models.Program, error) {
	program := &models.Program{}
	var programIDRaw, orgIDRaw string
	err := row.Scan(&programIDRaw, &orgIDRaw, &program.Name,
		&program.StartDate, &program.EndDate, &program.CreatedAt, &program.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan program: %w", err)
	}
	if program.ID, err = id.ParseProgramID(programIDRaw); err != nil {
		return nil, err
	}
	if program.OrganizationID, err = id.ParseOrganizationID(orgIDRaw); err != nil {
		return nil, err
	}
	return program, nil
}

func scanPrograms(rows *sql.Rows) ([]*models.Program, error) {
	var out []*models.Program
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, program)
	}
	return out, rows.Err()
}

func scanCard(row rowScanner) (*models.Card, error) {
	card := &models.Card{}
	var cardIDRaw, stageIDRaw, startupIDRaw string
	err := row.Scan(&cardIDRaw, &stageIDRaw, &startupIDRaw, &card.Position, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan card: %w", err)
	}
	if card.ID, err = id.ParseCardID(cardIDRaw); err != nil {
		return nil, err
	}
	if card.StageID, err = id.ParseStageID(stageIDRaw); err != nil {
		return nil, err
	}
	if card.StartupID, err = id.ParseStartupID(startupIDRaw); err != nil {
		return nil, err
	}
	return card, nil
}

func scanCardRow(row *sql.Row) (*models.Card, error) {
	return scanCard(row)
}

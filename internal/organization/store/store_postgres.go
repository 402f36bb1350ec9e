package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"launchpad/internal/organization/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// Postgres persists organizations in PostgreSQL.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, org *models.Organization) error {
	// The partial unique index on lower(name) turns a race between two
	// creates into a constraint violation here.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, status, api_secret_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		org.ID.String(), org.Name, string(org.Status), org.APISecretHash, org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, api_secret_hash, created_at, updated_at
		FROM organizations WHERE id = $1`,
		orgID.String(),
	)
	return scanOrganization(row)
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Organization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, api_secret_hash, created_at, updated_at
		FROM organizations WHERE lower(name) = lower($1)`,
		name,
	)
	return scanOrganization(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, api_secret_hash, created_at, updated_at
		FROM organizations ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var out []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

// Execute runs validate and mutate under SELECT ... FOR UPDATE so status
// transitions are atomic across replicas.
func (s *Postgres) Execute(ctx context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, status, api_secret_hash, created_at, updated_at
		FROM organizations WHERE id = $1 FOR UPDATE`,
		orgID.String(),
	)
	org, err := scanOrganization(row)
	if err != nil {
		return nil, err
	}
	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)

	_, err = tx.ExecContext(ctx, `
		UPDATE organizations SET status = $1, updated_at = $2 WHERE id = $3`,
		string(org.Status), org.UpdatedAt, org.ID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return org, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	org := &models.Organization{}
	var orgIDRaw, status string
	err := row.Scan(&orgIDRaw, &org.Name, &status, &org.APISecretHash, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan organization: %w", err)
	}
	if org.ID, err = id.ParseOrganizationID(orgIDRaw); err != nil {
		return nil, err
	}
	org.Status = models.Status(status)
	return org, nil
}

// isUniqueViolation matches Postgres error code 23505 without binding the
// store to one driver's error type.
func isUniqueViolation(err error) bool {
	type coder interface {
		SQLState() string
	}
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}

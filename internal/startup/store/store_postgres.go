package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// Postgres persists startups in PostgreSQL. Profile attributes map to
// nullable columns; target_markets is a text[] column.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

const startupColumns = `id, organization_id, name, vertical, business_model,
	employees_quantity, already_earning, monthly_revenue, foundation_date,
	target_markets, pitch, profile_filled_percentage, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, startup *models.Startup) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO startups (`+startupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		startup.ID.String(), startup.OrganizationID.String(), startup.Name,
		startup.Vertical, startup.BusinessModel, startup.EmployeesQuantity,
		startup.AlreadyEarning, startup.MonthlyRevenue, startup.FoundationDate,
		pq.Array(startup.TargetMarkets), startup.Pitch,
		startup.ProfileFilledPercentage, startup.CreatedAt, startup.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert startup: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, startupID id.StartupID) (*models.Startup, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+startupColumns+` FROM startups WHERE id = $1`,
		startupID.String(),
	)
	return scanStartup(row)
}

func (s *Postgres) ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Startup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+startupColumns+` FROM startups
		WHERE organization_id = $1 ORDER BY created_at`,
		orgID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list startups: %w", err)
	}
	defer rows.Close()

	var out []*models.Startup
	for rows.Next() {
		startup, err := scanStartup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, startup)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, startup *models.Startup) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE startups SET
			name = $1, vertical = $2, business_model = $3,
			employees_quantity = $4, already_earning = $5, monthly_revenue = $6,
			foundation_date = $7, target_markets = $8, pitch = $9,
			profile_filled_percentage = $10, updated_at = $11
		WHERE id = $12`,
		startup.Name, startup.Vertical, startup.BusinessModel,
		startup.EmployeesQuantity, startup.AlreadyEarning, startup.MonthlyRevenue,
		startup.FoundationDate, pq.Array(startup.TargetMarkets), startup.Pitch,
		startup.ProfileFilledPercentage, startup.UpdatedAt,
		startup.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update startup: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update startup: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStartup(row rowScanner) (*models.Startup, error) {
	startup := &models.Startup{}
	var startupIDRaw, orgIDRaw string
	var markets pq.StringArray
	err := row.Scan(&startupIDRaw, &orgIDRaw, &startup.Name,
		&startup.Vertical, &startup.BusinessModel, &startup.EmployeesQuantity,
		&startup.AlreadyEarning, &startup.MonthlyRevenue, &startup.FoundationDate,
		&markets, &startup.Pitch, &startup.ProfileFilledPercentage,
		&startup.CreatedAt, &startup.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan startup: %w", err)
	}
	if startup.ID, err = id.ParseStartupID(startupIDRaw); err != nil {
		return nil, err
	}
	if startup.OrganizationID, err = id.ParseOrganizationID(orgIDRaw); err != nil {
		return nil, err
	}
	startup.TargetMarkets = []string(markets)
	return startup, nil
}

package startup

import (
	"context"

	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
)

// Store is the persistence port for startups. Implementations: in-memory
// (default) and Postgres.
type Store interface {
	Create(ctx context.Context, startup *models.Startup) error
	Find(ctx context.Context, startupID id.StartupID) (*models.Startup, error)
	ListByOrganization(ctx context.Context, orgID id.OrganizationID) ([]*models.Startup, error)
	Update(ctx context.Context, startup *models.Startup) error
}

package service

import (
	"context"
	"log/slog"

	"launchpad/internal/audit"
	orgmetrics "launchpad/internal/organization/metrics"
	"launchpad/internal/organization/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/requestcontext"
)

// Store is the persistence port for organizations.
type Store interface {
	// CreateIfNameAvailable stores the organization unless the name is
	// already taken (case-insensitive); then it returns sentinel.ErrConflict.
	CreateIfNameAvailable(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	FindByName(ctx context.Context, name string) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	// Execute atomically validates and mutates one organization while the
	// store holds its lock (mutex or FOR UPDATE). The updated copy is
	// returned.
	Execute(ctx context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error)
}

type serviceConfig struct {
	logger         *slog.Logger
	metrics        *orgmetrics.Metrics
	auditPublisher audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

func WithMetrics(m *orgmetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.auditPublisher = p }
}

// auditEmitter decorates events with request-scoped metadata; audit never
// fails the operation.
type auditEmitter struct {
	logger    *slog.Logger
	publisher audit.Publisher
}

func newAuditEmitter(logger *slog.Logger, publisher audit.Publisher) *auditEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (e *auditEmitter) emit(ctx context.Context, kind audit.Kind, subjectID string, detail map[string]string) {
	if e.publisher == nil {
		return
	}
	event := audit.NewEvent(kind, subjectID, requestcontext.Now(ctx))
	if userID := requestcontext.UserID(ctx); !userID.IsZero() {
		event.ActorID = userID.String()
	}
	event.UserAgent = requestcontext.UserAgent(ctx)
	event.Detail = detail
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to publish audit event",
			"kind", string(kind),
			"error", err,
		)
	}
}

package startup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"launchpad/internal/audit"
	"launchpad/internal/pipeline"
	pipelinemodels "launchpad/internal/pipeline/models"
	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
	"launchpad/pkg/requestcontext"
)

// Engine is the slice of the transition engine the startup service needs:
// it hands over a fresh snapshot after every profile commit.
type Engine interface {
	EvaluateStartup(ctx context.Context, startupID id.StartupID, filledPercentage int, snapshot pipelinemodels.Snapshot) (*pipeline.Evaluation, error)
}

// Service owns the startup profile lifecycle. Profile writes commit first,
// then the engine runs synchronously in the same request.
type Service struct {
	store     Store
	engine    Engine
	logger    *slog.Logger
	publisher audit.Publisher
	tracer    trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store Store, engine Engine, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		logger: logger,
		tracer: otel.Tracer("launchpad/startup"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateStartup registers a startup under an organization with an empty
// profile.
func (s *Service) CreateStartup(ctx context.Context, orgID id.OrganizationID, name string) (*models.Startup, error) {
	st, err := models.NewStartup(id.StartupID(uuid.New()), orgID, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, st); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create startup")
	}
	return st, nil
}

func (s *Service) GetStartup(ctx context.Context, startupID id.StartupID) (*models.Startup, error) {
	st, err := s.store.Find(ctx, startupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "startup not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load startup")
	}
	return st, nil
}

func (s *Service) ListStartups(ctx context.Context, orgID id.OrganizationID) ([]*models.Startup, error) {
	startups, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list startups")
	}
	return startups, nil
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Vertical          *string
	BusinessModel     *string
	EmployeesQuantity *int
	AlreadyEarning    *bool
	MonthlyRevenue    *float64
	FoundationDate    *time.Time
	TargetMarkets     []string
	Pitch             *string
}

func (u ProfileUpdate) apply(st *models.Startup) {
	if u.Vertical != nil {
		st.Vertical = u.Vertical
	}
	if u.BusinessModel != nil {
		st.BusinessModel = u.BusinessModel
	}
	if u.EmployeesQuantity != nil {
		st.EmployeesQuantity = u.EmployeesQuantity
	}
	if u.AlreadyEarning != nil {
		st.AlreadyEarning = u.AlreadyEarning
	}
	if u.MonthlyRevenue != nil {
		st.MonthlyRevenue = u.MonthlyRevenue
	}
	if u.FoundationDate != nil {
		st.FoundationDate = u.FoundationDate
	}
	if u.TargetMarkets != nil {
		st.TargetMarkets = u.TargetMarkets
	}
	if u.Pitch != nil {
		st.Pitch = u.Pitch
	}
}

// UpdateProfile commits the mutation, recomputes the filled percentage, and
// runs the transition engine on the fresh snapshot. An engine failure after
// the profile commit is returned as-is: the profile write stands, the
// caller sees why no transition happened.
func (s *Service) UpdateProfile(ctx context.Context, startupID id.StartupID, update ProfileUpdate) (*models.Startup, *pipeline.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "StartupService.UpdateProfile")
	defer span.End()

	st, err := s.GetStartup(ctx, startupID)
	if err != nil {
		return nil, nil, err
	}

	update.apply(st)
	st.RecomputeFilledPercentage()
	st.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, st); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update startup profile")
	}

	evaluation, err := s.engine.EvaluateStartup(ctx, st.ID, st.ProfileFilledPercentage, BuildSnapshot(st))
	if err != nil {
		return nil, nil, err
	}
	s.emitTransitions(ctx, st.ID, evaluation)
	return st, evaluation, nil
}

func (s *Service) emitTransitions(ctx context.Context, startupID id.StartupID, evaluation *pipeline.Evaluation) {
	if s.publisher == nil {
		return
	}
	for _, t := range evaluation.Transitions {
		if !t.Moved {
			continue
		}
		event := audit.NewEvent(audit.KindStartupTransitioned, startupID.String(), requestcontext.Now(ctx))
		if userID := requestcontext.UserID(ctx); !userID.IsZero() {
			event.ActorID = userID.String()
		}
		event.UserAgent = requestcontext.UserAgent(ctx)
		event.Detail = map[string]string{
			"program_id": t.ProgramID.String(),
			"rule_id":    t.RuleID.String(),
			"from_stage": t.FromStageID.String(),
			"to_stage":   t.ToStageID.String(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish audit event",
				"kind", string(audit.KindStartupTransitioned),
				"error", err,
			)
		}
	}
}

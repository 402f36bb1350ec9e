package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"launchpad/internal/audit"
	"launchpad/internal/pipeline/metrics"
	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
	"launchpad/pkg/requestcontext"
)

// RuleInvalidator is implemented by the Redis rule cache so rule mutations
// can drop stale entries. A nil invalidator is a no-op.
type RuleInvalidator interface {
	Invalidate(ctx context.Context, programID id.ProgramID) error
}

// Service orchestrates board operations: program/stage/rule configuration,
// subscriptions, and the manual move path of the position ledger.
type Service struct {
	store       Store
	tx          StoreTx
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       *auditEmitter
	invalidator RuleInvalidator
	tracer      trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.audit.publisher = p }
}

func WithRuleInvalidator(inv RuleInvalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

func NewService(store Store, tx StoreTx, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx,
		logger: logger,
		audit:  &auditEmitter{logger: logger},
		tracer: otel.Tracer("launchpad/pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProgram registers a new program for an organization.
func (s *Service) CreateProgram(ctx context.Context, orgID id.OrganizationID, name string, start, end time.Time) (*models.Program, error) {
	program, err := models.NewProgram(id.ProgramID(uuid.New()), orgID, name, start, end, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateProgram(ctx, program); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create program")
	}
	s.audit.emit(ctx, audit.KindProgramCreated, program.ID.String(), map[string]string{
		"name": program.Name,
	})
	return program, nil
}

// CreateStage appends a stage to the program's column order.
func (s *Service) CreateStage(ctx context.Context, programID id.ProgramID, name string) (*models.Stage, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "stage name is required")
	}
	if _, err := s.findProgram(ctx, programID); err != nil {
		return nil, err
	}
	stages, err := s.store.ListStages(ctx, programID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stages")
	}
	stage := &models.Stage{
		ID:           id.StageID(uuid.New()),
		ProgramID:    programID,
		Name:         name,
		DisplayOrder: len(stages),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.CreateStage(ctx, stage); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create stage")
	}
	return stage, nil
}

// CreateRuleInput carries the raw rule configuration from the API.
type CreateRuleInput struct {
	ProgramID   id.ProgramID
	StageID     id.StageID
	Key         string
	FieldType   models.FieldType
	Rule        string
	Comparisons []models.Comparison
	Options     []models.Option
}

// CreateRule validates and stores a rule. Select-type rules must carry an
// options enumeration and may only use the equal operator; order operators
// would silently evaluate false, so they are rejected here instead.
func (s *Service) CreateRule(ctx context.Context, input CreateRuleInput) (*models.Rule, error) {
	if input.Key == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rule key is required")
	}
	if input.Rule == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rule value is required")
	}
	if !input.FieldType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown field type %q", input.FieldType)
	}
	if len(input.Comparisons) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one comparison is required")
	}
	for _, c := range input.Comparisons {
		if !c.Valid() {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown comparison %q", c)
		}
		if input.FieldType.IsSelect() && c != models.ComparisonEqual {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "comparison %q is not supported for select fields", c)
		}
	}
	if input.FieldType.IsSelect() && len(input.Options) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "select rules require options")
	}

	if _, err := s.findProgram(ctx, input.ProgramID); err != nil {
		return nil, err
	}
	stage, err := s.findStage(ctx, input.StageID)
	if err != nil {
		return nil, err
	}
	if stage.ProgramID != input.ProgramID {
		return nil, dErrors.New(dErrors.CodeConflict, "target stage belongs to another program")
	}

	rule := &models.Rule{
		ID:          id.RuleID(uuid.New()),
		ProgramID:   input.ProgramID,
		StageID:     input.StageID,
		Key:         input.Key,
		FieldType:   input.FieldType,
		Rule:        input.Rule,
		Comparisons: input.Comparisons,
		Options:     input.Options,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create rule")
	}
	s.invalidateRules(ctx, input.ProgramID)
	s.audit.emit(ctx, audit.KindRuleCreated, rule.ID.String(), map[string]string{
		"program_id": input.ProgramID.String(),
		"stage_id":   input.StageID.String(),
		"key":        input.Key,
	})
	return rule, nil
}

// Subscribe creates the startup's card at the end of the program's first
// stage. A program without stages is a configuration error.
func (s *Service) Subscribe(ctx context.Context, programID id.ProgramID, startupID id.StartupID) (*models.Card, error) {
	if _, err := s.findProgram(ctx, programID); err != nil {
		return nil, err
	}
	stages, err := s.store.ListStages(ctx, programID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stages")
	}
	if len(stages) == 0 {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "program %s has no stages", programID)
	}
	if _, err := s.store.FindCardByStartupAndProgram(ctx, startupID, programID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "startup already subscribed to program")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check subscription")
	}

	first := stages[0]
	var card *models.Card
	err = s.tx.RunInTx(ctx, func(store Store) error {
		existing, err := store.ListCardsByStage(ctx, first.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stage cards")
		}
		now := requestcontext.Now(ctx)
		card = &models.Card{
			ID:        id.CardID(uuid.New()),
			StageID:   first.ID,
			StartupID: startupID,
			Position:  len(existing),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return store.CreateCard(ctx, card)
	})
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, audit.KindStartupSubscribed, startupID.String(), map[string]string{
		"program_id": programID.String(),
		"stage_id":   first.ID.String(),
		"position":   strconv.Itoa(card.Position),
	})
	return card, nil
}

// MoveCard is the manual drag-and-drop entry point of the position ledger.
// The whole relocation runs in one transaction; a missing card aborts
// before any write.
func (s *Service) MoveCard(ctx context.Context, cardID id.CardID, fromStageID, toStageID id.StageID, targetIndex int) (*models.Card, error) {
	ctx, span := s.tracer.Start(ctx, "Service.MoveCard")
	defer span.End()

	if targetIndex < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "target index must not be negative")
	}
	if _, err := s.findStage(ctx, toStageID); err != nil {
		return nil, err
	}

	var moved *models.Card
	err := s.tx.RunInTx(ctx, func(store Store) error {
		card, err := findCardForMove(ctx, store, cardID)
		if err != nil {
			return err
		}
		if card.StageID != fromStageID {
			return dErrors.New(dErrors.CodeConflict, "card is not in the given source stage")
		}
		position, err := moveWithinTx(ctx, store, card, toStageID, targetIndex)
		if err != nil {
			return err
		}
		card.StageID = toStageID
		card.Position = position
		moved = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMove("manual")
	s.audit.emit(ctx, audit.KindCardMoved, cardID.String(), map[string]string{
		"from_stage": fromStageID.String(),
		"to_stage":   toStageID.String(),
		"position":   strconv.Itoa(moved.Position),
	})
	return moved, nil
}

// BoardStage is one column of the board view with its ordered cards.
type BoardStage struct {
	Stage *models.Stage  `json:"stage"`
	Cards []*models.Card `json:"cards"`
}

// Board returns the program's stages in display order, each with its cards
// in position order.
func (s *Service) Board(ctx context.Context, programID id.ProgramID) ([]*BoardStage, error) {
	if _, err := s.findProgram(ctx, programID); err != nil {
		return nil, err
	}
	stages, err := s.store.ListStages(ctx, programID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stages")
	}
	board := make([]*BoardStage, 0, len(stages))
	for _, stage := range stages {
		cards, err := s.store.ListCardsByStage(ctx, stage.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list stage cards")
		}
		board = append(board, &BoardStage{Stage: stage, Cards: cards})
	}
	return board, nil
}

// ListRules returns the program's rules in store order.
func (s *Service) ListRules(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error) {
	if _, err := s.findProgram(ctx, programID); err != nil {
		return nil, err
	}
	rules, err := s.store.ListRules(ctx, programID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules")
	}
	return rules, nil
}

func (s *Service) findProgram(ctx context.Context, programID id.ProgramID) (*models.Program, error) {
	program, err := s.store.FindProgram(ctx, programID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "program not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load program")
	}
	return program, nil
}

func (s *Service) findStage(ctx context.Context, stageID id.StageID) (*models.Stage, error) {
	stage, err := s.store.FindStage(ctx, stageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "stage not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load stage")
	}
	return stage, nil
}

func (s *Service) invalidateRules(ctx context.Context, programID id.ProgramID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, programID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate rule cache",
			"program_id", programID.String(),
			"error", err,
		)
	}
}

// auditEmitter decorates events with request-scoped actor metadata and
// swallows publish failures: audit must never fail the operation.
type auditEmitter struct {
	logger    *slog.Logger
	publisher audit.Publisher
}

func (e *auditEmitter) emit(ctx context.Context, kind audit.Kind, subjectID string, detail map[string]string) {
	if e.publisher == nil {
		return
	}
	event := audit.NewEvent(kind, subjectID, requestcontext.Now(ctx))
	if userID := requestcontext.UserID(ctx); !userID.IsZero() {
		event.ActorID = userID.String()
	}
	if orgID := requestcontext.OrganizationID(ctx); !orgID.IsZero() {
		event.OrgID = orgID.String()
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

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"launchpad/internal/pipeline/metrics"
	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
	"launchpad/pkg/requestcontext"
)

// Engine is the stage transition engine. After every profile mutation the
// startup service hands it a fresh snapshot; the engine evaluates every
// active program the startup holds a card in and relocates the card on the
// first passing rule per program.
//
// Relocation goes through the position ledger (append at the destination
// end) so the density invariant holds on the automatic path too.
type Engine struct {
	store   Store
	tx      StoreTx
	rules   RuleSource
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewEngine(store Store, tx StoreTx, rules RuleSource, logger *slog.Logger, m *metrics.Metrics) *Engine {
	if rules == nil {
		rules = storeRuleSource{store}
	}
	return &Engine{
		store:   store,
		tx:      tx,
		rules:   rules,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("launchpad/pipeline"),
	}
}

// Transition records one automatic relocation decided by the engine.
type Transition struct {
	ProgramID   id.ProgramID
	RuleID      id.RuleID
	FromStageID id.StageID
	ToStageID   id.StageID
	Position    int
	// Moved is false when the winning rule targets the stage the card is
	// already in; the match is recorded but nothing is written.
	Moved bool
}

// Evaluation is the outcome of one engine run for one startup.
type Evaluation struct {
	// Eligible is false when the profile gate (100% filled) blocked the run.
	Eligible    bool
	Transitions []Transition
}

// programContext is the per-program data gathered before any mutation.
type programContext struct {
	program *models.Program
	stages  []*models.Stage
	rules   []*models.Rule
}

// EvaluateStartup runs the full evaluation for one startup.
//
// Rules are scanned in store order and the first passing rule per program
// wins, regardless of which stage it targets. A program with no stages is a
// fatal configuration error: the whole evaluation aborts and nothing is
// committed.
func (e *Engine) EvaluateStartup(ctx context.Context, startupID id.StartupID, filledPercentage int, snapshot models.Snapshot) (*Evaluation, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.EvaluateStartup")
	defer span.End()
	start := time.Now()

	// Gate: incomplete profiles never trigger transitions.
	if filledPercentage != 100 {
		return &Evaluation{Eligible: false}, nil
	}

	programs, err := e.activePrograms(ctx, startupID)
	if err != nil {
		return nil, err
	}
	if len(programs) == 0 {
		return &Evaluation{Eligible: true}, nil
	}

	contexts, err := e.gatherPrograms(ctx, programs)
	if err != nil {
		return nil, err
	}

	evaluation := &Evaluation{Eligible: true}
	err = e.tx.RunInTx(ctx, func(store Store) error {
		for _, pc := range contexts {
			transition, err := e.evaluateProgram(ctx, store, startupID, pc, snapshot)
			if err != nil {
				return err
			}
			if transition != nil {
				evaluation.Transitions = append(evaluation.Transitions, *transition)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	moved := 0
	for _, t := range evaluation.Transitions {
		if t.Moved {
			moved++
			e.metrics.RecordMove("automatic")
		}
	}
	e.metrics.RecordEvaluation(time.Since(start).Seconds(), moved)
	return evaluation, nil
}

// activePrograms lists the programs the startup holds a card in whose end
// date is still in the future.
func (e *Engine) activePrograms(ctx context.Context, startupID id.StartupID) ([]*models.Program, error) {
	programs, err := e.store.ListProgramsByStartup(ctx, startupID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list startup programs")
	}
	now := requestcontext.Now(ctx)
	active := programs[:0]
	for _, p := range programs {
		if p.IsActive(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// gatherPrograms fetches stages and rules for all programs concurrently,
// before the mutation transaction opens. Read-only, so the fan-out is safe.
func (e *Engine) gatherPrograms(ctx context.Context, programs []*models.Program) ([]*programContext, error) {
	contexts := make([]*programContext, len(programs))
	g, gctx := errgroup.WithContext(ctx)
	for i, program := range programs {
		g.Go(func() error {
			stages, err := e.store.ListStages(gctx, program.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list program stages")
			}
			if len(stages) == 0 {
				// Fatal configuration error: preserved from the original
				// behavior, the whole evaluation aborts.
				return dErrors.Newf(dErrors.CodeInvariantViolation, "program %s has no stages", program.ID)
			}
			rules, err := e.rules.RulesForProgram(gctx, program.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list program rules")
			}
			contexts[i] = &programContext{program: program, stages: stages, rules: rules}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contexts, nil
}

// evaluateProgram scans one program's rules in store order and applies the
// first match. Multiple rules may target the same stage; each is evaluated
// independently and any pass is sufficient.
func (e *Engine) evaluateProgram(ctx context.Context, store Store, startupID id.StartupID, pc *programContext, snapshot models.Snapshot) (*Transition, error) {
	var winner *models.Rule
	for _, rule := range pc.rules {
		if EvaluateRule(rule, snapshot) {
			winner = rule
			break
		}
	}
	if winner == nil {
		return nil, nil
	}

	if !stageInProgram(pc.stages, winner.StageID) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "rule %s targets a stage outside its program", winner.ID)
	}

	card, err := store.FindCardByStartupAndProgram(ctx, startupID, pc.program.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// The subscription disappeared between gather and commit;
			// nothing to relocate.
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find startup card")
	}

	transition := &Transition{
		ProgramID:   pc.program.ID,
		RuleID:      winner.ID,
		FromStageID: card.StageID,
		ToStageID:   winner.StageID,
		Position:    card.Position,
	}
	if card.StageID == winner.StageID {
		return transition, nil
	}

	position, err := appendWithinTx(ctx, store, card, winner.StageID)
	if err != nil {
		return nil, err
	}
	transition.Position = position
	transition.Moved = true

	e.logger.InfoContext(ctx, "automatic stage transition",
		"startup_id", startupID.String(),
		"program_id", pc.program.ID.String(),
		"rule_id", winner.ID.String(),
		"from_stage", transition.FromStageID.String(),
		"to_stage", transition.ToStageID.String(),
		"position", position,
	)
	return transition, nil
}

func stageInProgram(stages []*models.Stage, stageID id.StageID) bool {
	for _, s := range stages {
		if s.ID == stageID {
			return true
		}
	}
	return false
}

// NewStoreRuleSource exposes the store-backed rule source so a cache can be
// layered in front of it at wiring time.
func NewStoreRuleSource(store Store) RuleSource {
	return storeRuleSource{store}
}

// storeRuleSource serves rules straight from the store when no cache is
// configured.
type storeRuleSource struct {
	store Store
}

func (s storeRuleSource) RulesForProgram(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error) {
	return s.store.ListRules(ctx, programID)
}

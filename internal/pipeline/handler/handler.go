package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"launchpad/internal/pipeline"
	"launchpad/internal/pipeline/models"
	"launchpad/internal/platform/metrics"
	"launchpad/internal/platform/middleware"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/httputil"
	"launchpad/pkg/requestcontext"
)

// Service defines the board operations the handler depends on.
type Service interface {
	CreateProgram(ctx context.Context, orgID id.OrganizationID, name string, start, end time.Time) (*models.Program, error)
	CreateStage(ctx context.Context, programID id.ProgramID, name string) (*models.Stage, error)
	CreateRule(ctx context.Context, input pipeline.CreateRuleInput) (*models.Rule, error)
	ListRules(ctx context.Context, programID id.ProgramID) ([]*models.Rule, error)
	Subscribe(ctx context.Context, programID id.ProgramID, startupID id.StartupID) (*models.Card, error)
	MoveCard(ctx context.Context, cardID id.CardID, fromStageID, toStageID id.StageID, targetIndex int) (*models.Card, error)
	Board(ctx context.Context, programID id.ProgramID) ([]*pipeline.BoardStage, error)
}

// Handler handles board and pipeline endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new pipeline Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the board routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(board chi.Router) {
		board.Use(middleware.Recovery(h.logger))
		board.Use(middleware.RequestID)
		board.Use(middleware.RequestTime)
		board.Use(middleware.Logger(h.logger))
		board.Use(middleware.Timeout(30 * time.Second))
		board.Use(middleware.ContentTypeJSON)
		board.Use(middleware.Device)
		board.Use(middleware.LatencyMiddleware(h.metrics))
		board.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		board.Post("/programs", h.handleCreateProgram)
		board.Get("/programs/{programID}/board", h.handleBoard)
		board.Post("/programs/{programID}/stages", h.handleCreateStage)
		board.Get("/programs/{programID}/rules", h.handleListRules)
		board.Post("/programs/{programID}/rules", h.handleCreateRule)
		board.Post("/programs/{programID}/subscriptions", h.handleSubscribe)
		board.Post("/cards/{cardID}/move", h.handleMoveCard)
	})
}

func (h *Handler) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := requestcontext.OrganizationID(ctx)
	if orgID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token carries no organization"))
		return
	}

	var req createProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	start, end, err := req.dates()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	program, err := h.service.CreateProgram(ctx, orgID, req.Name, start, end)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create program", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProgramResponse(program))
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	programID, err := id.ParseProgramID(chi.URLParam(r, "programID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid program id"))
		return
	}

	board, err := h.service.Board(ctx, programID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load board", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBoardResponse(programID, board))
}

func (h *Handler) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	programID, err := id.ParseProgramID(chi.URLParam(r, "programID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid program id"))
		return
	}

	var req createStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	stage, err := h.service.CreateStage(ctx, programID, req.Name)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create stage", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStageResponse(stage))
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	programID, err := id.ParseProgramID(chi.URLParam(r, "programID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid program id"))
		return
	}

	rules, err := h.service.ListRules(ctx, programID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list rules", err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toRuleResponse(rule))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	programID, err := id.ParseProgramID(chi.URLParam(r, "programID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid program id"))
		return
	}

	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	input, err := req.toInput(programID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rule, err := h.service.CreateRule(ctx, input)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	programID, err := id.ParseProgramID(chi.URLParam(r, "programID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid program id"))
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	startupID, err := id.ParseStartupID(req.StartupID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid startup id"))
		return
	}

	card, err := h.service.Subscribe(ctx, programID, startupID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to subscribe startup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCardResponse(card))
}

func (h *Handler) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid card id"))
		return
	}

	var req moveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	fromStageID, err := id.ParseStageID(req.FromStageID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid source stage id"))
		return
	}
	toStageID, err := id.ParseStageID(req.ToStageID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid target stage id"))
		return
	}

	card, err := h.service.MoveCard(ctx, cardID, fromStageID, toStageID, req.Position)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to move card", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCardResponse(card))
}

// writeServiceError logs internal failures and passes coded errors through.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"launchpad/internal/pipeline"
	"launchpad/internal/platform/metrics"
	"launchpad/internal/platform/middleware"
	"launchpad/internal/startup"
	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/httputil"
	"launchpad/pkg/requestcontext"
)

// Service defines the startup operations the handler depends on.
type Service interface {
	CreateStartup(ctx context.Context, orgID id.OrganizationID, name string) (*models.Startup, error)
	GetStartup(ctx context.Context, startupID id.StartupID) (*models.Startup, error)
	ListStartups(ctx context.Context, orgID id.OrganizationID) ([]*models.Startup, error)
	UpdateProfile(ctx context.Context, startupID id.StartupID, update startup.ProfileUpdate) (*models.Startup, *pipeline.Evaluation, error)
}

// Handler handles startup profile endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new startup Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the startup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.RequestTime)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Device)
		router.Use(middleware.LatencyMiddleware(h.metrics))
		router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		router.Post("/startups", h.handleCreate)
		router.Get("/startups", h.handleList)
		router.Get("/startups/{startupID}", h.handleGet)
		router.Patch("/startups/{startupID}/profile", h.handleUpdateProfile)
	})
}

type createStartupRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := requestcontext.OrganizationID(ctx)
	if orgID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token carries no organization"))
		return
	}

	var req createStartupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	st, err := h.service.CreateStartup(ctx, orgID, req.Name)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create startup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, st)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID := requestcontext.OrganizationID(ctx)
	if orgID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token carries no organization"))
		return
	}

	startups, err := h.service.ListStartups(ctx, orgID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list startups", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"startups": startups})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startupID, err := id.ParseStartupID(chi.URLParam(r, "startupID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid startup id"))
		return
	}

	st, err := h.service.GetStartup(ctx, startupID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load startup", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

type updateProfileRequest struct {
	Vertical          *string  `json:"vertical"`
	BusinessModel     *string  `json:"business_model"`
	EmployeesQuantity *int     `json:"employees_quantity"`
	AlreadyEarning    *bool    `json:"already_earning"`
	MonthlyRevenue    *float64 `json:"monthly_revenue"`
	FoundationDate    *string  `json:"foundation_date"`
	TargetMarkets     []string `json:"target_markets"`
	Pitch             *string  `json:"pitch"`
}

type transitionResponse struct {
	ProgramID string `json:"program_id"`
	RuleID    string `json:"rule_id"`
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	Position  int    `json:"position"`
	Moved     bool   `json:"moved"`
}

type updateProfileResponse struct {
	Startup     *models.Startup      `json:"startup"`
	Eligible    bool                 `json:"eligible"`
	Transitions []transitionResponse `json:"transitions"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startupID, err := id.ParseStartupID(chi.URLParam(r, "startupID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid startup id"))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	st, evaluation, err := h.service.UpdateProfile(ctx, startupID, update)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to update profile", err)
		return
	}

	resp := updateProfileResponse{
		Startup:     st,
		Eligible:    evaluation.Eligible,
		Transitions: make([]transitionResponse, 0, len(evaluation.Transitions)),
	}
	for _, t := range evaluation.Transitions {
		resp.Transitions = append(resp.Transitions, transitionResponse{
			ProgramID: t.ProgramID.String(),
			RuleID:    t.RuleID.String(),
			FromStage: t.FromStageID.String(),
			ToStage:   t.ToStageID.String(),
			Position:  t.Position,
			Moved:     t.Moved,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (r updateProfileRequest) toUpdate() (startup.ProfileUpdate, error) {
	update := startup.ProfileUpdate{
		Vertical:          r.Vertical,
		BusinessModel:     r.BusinessModel,
		EmployeesQuantity: r.EmployeesQuantity,
		AlreadyEarning:    r.AlreadyEarning,
		MonthlyRevenue:    r.MonthlyRevenue,
		TargetMarkets:     r.TargetMarkets,
		Pitch:             r.Pitch,
	}
	if r.FoundationDate != nil {
		parsed, ok := parseDate(*r.FoundationDate)
		if !ok {
			return startup.ProfileUpdate{}, dErrors.New(dErrors.CodeBadRequest, "invalid foundation date")
		}
		update.FoundationDate = &parsed
	}
	return update, nil
}

func parseDate(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

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

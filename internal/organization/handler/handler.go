package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"launchpad/internal/organization/models"
	orgservice "launchpad/internal/organization/service"
	"launchpad/internal/platform/metrics"
	"launchpad/internal/platform/middleware"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/httputil"
	"launchpad/pkg/requestcontext"
)

// Service defines the organization operations the handler depends on.
type Service interface {
	CreateOrganization(ctx context.Context, name string) (*orgservice.CreatedOrganization, error)
	GetOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]*models.Organization, error)
	DeactivateOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	ReactivateOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	Authenticate(ctx context.Context, orgID id.OrganizationID, secret string) (string, error)
}

// Handler handles organization admin and authentication endpoints.
type Handler struct {
	logger     *slog.Logger
	service    Service
	metrics    *metrics.Metrics
	adminToken string
}

// New creates a new organization Handler.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		metrics:    metrics,
		adminToken: adminToken,
	}
}

// Register registers the organization routes with the chi router. Admin
// routes sit behind the shared admin token; the token endpoint is public.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.RequestTime)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(15 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.LatencyMiddleware(h.metrics))

		router.Post("/auth/token", h.handleToken)

		router.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
			admin.Post("/admin/organizations", h.handleCreate)
			admin.Get("/admin/organizations", h.handleList)
			admin.Get("/admin/organizations/{orgID}", h.handleGet)
			admin.Post("/admin/organizations/{orgID}/deactivate", h.handleDeactivate)
			admin.Post("/admin/organizations/{orgID}/reactivate", h.handleReactivate)
		})
	})
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrganizationResponse(org *models.Organization) organizationResponse {
	return organizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Status:    string(org.Status),
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}

type createdOrganizationResponse struct {
	organizationResponse
	// APISecret is returned exactly once, at creation.
	APISecret string `json:"api_secret"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.service.CreateOrganization(ctx, req.Name)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, createdOrganizationResponse{
		organizationResponse: toOrganizationResponse(created.Organization),
		APISecret:            created.APISecret,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgs, err := h.service.ListOrganizations(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list organizations", err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toOrganizationResponse(org))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"organizations": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}

	org, err := h.service.GetOrganization(ctx, orgID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.service.DeactivateOrganization, "failed to deactivate organization")
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleStatusChange(w, r, h.service.ReactivateOrganization, "failed to reactivate organization")
}

func (h *Handler) handleStatusChange(w http.ResponseWriter, r *http.Request, change func(context.Context, id.OrganizationID) (*models.Organization, error), msg string) {
	ctx := r.Context()
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization id"))
		return
	}

	org, err := change(ctx, orgID)
	if err != nil {
		h.writeServiceError(ctx, w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

type tokenRequest struct {
	OrganizationID string `json:"organization_id"`
	APISecret      string `json:"api_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	orgID, err := id.ParseOrganizationID(req.OrganizationID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.service.Authenticate(ctx, orgID, req.APISecret)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to authenticate organization", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(orgservice.TokenTTL.Seconds()),
	})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
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

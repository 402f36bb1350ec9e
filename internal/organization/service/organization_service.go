package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"launchpad/internal/audit"
	orgmetrics "launchpad/internal/organization/metrics"
	"launchpad/internal/organization/models"
	"launchpad/internal/organization/secrets"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
	"launchpad/pkg/requestcontext"
)

// TokenMinter issues access tokens after a successful authentication.
type TokenMinter interface {
	GenerateAccessToken(userID, orgID uuid.UUID, expiresIn time.Duration) (string, error)
}

// TokenTTL bounds the lifetime of organization API tokens.
const TokenTTL = time.Hour

// OrganizationService orchestrates organization lifecycle and API
// authentication.
type OrganizationService struct {
	orgs         Store
	tokens       TokenMinter
	auditEmitter *auditEmitter
	metrics      *orgmetrics.Metrics
	logger       *slog.Logger
}

func NewOrganizationService(orgs Store, tokens TokenMinter, opts ...Option) *OrganizationService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizationService{
		orgs:         orgs,
		tokens:       tokens,
		auditEmitter: newAuditEmitter(logger, cfg.auditPublisher),
		metrics:      cfg.metrics,
		logger:       logger,
	}
}

// CreatedOrganization carries the one-time plaintext API secret alongside
// the stored organization. The secret is never recoverable afterwards.
type CreatedOrganization struct {
	Organization *models.Organization
	APISecret    string
}

// CreateOrganization registers an organization and mints its API secret.
func (s *OrganizationService) CreateOrganization(ctx context.Context, name string) (*CreatedOrganization, error) {
	name = strings.TrimSpace(name)

	secret, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate api secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash api secret")
	}

	org, err := models.NewOrganization(id.OrganizationID(uuid.New()), name, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.orgs.CreateIfNameAvailable(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "organization name must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create organization")
	}

	s.metrics.IncrementOrganizationCreated()
	s.auditEmitter.emit(ctx, audit.KindOrganizationCreated, org.ID.String(), map[string]string{
		"name": org.Name,
	})
	return &CreatedOrganization{Organization: org, APISecret: secret}, nil
}

func (s *OrganizationService) GetOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	if orgID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "organization id is required")
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

func (s *OrganizationService) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// DeactivateOrganization suspends an organization. Token issuance fails
// immediately afterwards; existing tokens run out on their own.
func (s *OrganizationService) DeactivateOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID,
		func(o *models.Organization) error {
			if err := o.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "organization is already inactive")
			}
			return nil
		},
		func(o *models.Organization) {
			o.ApplyDeactivation(now)
		},
	)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// ReactivateOrganization lifts a suspension.
func (s *OrganizationService) ReactivateOrganization(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	now := requestcontext.Now(ctx)
	org, err := s.orgs.Execute(ctx, orgID,
		func(o *models.Organization) error {
			if err := o.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "organization is already active")
			}
			return nil
		},
		func(o *models.Organization) {
			o.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapOrgErr(err)
	}
	return org, nil
}

// Authenticate verifies the API secret and mints an access token for the
// organization. Inactive organizations are rejected before the bcrypt check.
func (s *OrganizationService) Authenticate(ctx context.Context, orgID id.OrganizationID, secret string) (string, error) {
	start := time.Now()
	defer s.metrics.ObserveAuthenticate(start)

	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Same answer as a wrong secret; existence is not disclosed.
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	if !org.IsActive() {
		return "", dErrors.New(dErrors.CodeForbidden, "organization is inactive")
	}
	if err := secrets.Verify(secret, org.APISecretHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify api secret")
	}

	token, err := s.tokens.GenerateAccessToken(uuid.UUID(org.ID), uuid.UUID(org.ID), TokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	s.metrics.IncrementTokenIssued()
	return token, nil
}

func wrapOrgErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "organization store failure")
}

package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store
//go:generate mockgen -source=organization_service.go -destination=mocks/tokens.go -package=mocks TokenMinter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"launchpad/internal/organization/models"
	"launchpad/internal/organization/secrets"
	"launchpad/internal/organization/service/mocks"
	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
	"launchpad/pkg/platform/sentinel"
	"launchpad/pkg/requestcontext"
)

type OrganizationServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	mockStore  *mocks.MockStore
	mockTokens *mocks.MockTokenMinter
	service    *OrganizationService
	ctx        context.Context
	now        time.Time
}

func TestOrganizationServiceSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceSuite))
}

func (s *OrganizationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockTokens = mocks.NewMockTokenMinter(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewOrganizationService(s.mockStore, s.mockTokens, WithLogger(logger))
	s.now = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *OrganizationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *OrganizationServiceSuite) activeOrg(secret string) *models.Organization {
	hash, err := secrets.Hash(secret)
	s.Require().NoError(err)
	org, err := models.NewOrganization(id.OrganizationID(uuid.New()), "Acme Accelerator", hash, s.now)
	s.Require().NoError(err)
	return org
}

func (s *OrganizationServiceSuite) TestCreateOrganization() {
	var stored *models.Organization
	s.mockStore.EXPECT().
		CreateIfNameAvailable(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, org *models.Organization) error {
			stored = org
			return nil
		})

	created, err := s.service.CreateOrganization(s.ctx, "  Acme Accelerator  ")
	s.Require().NoError(err)

	s.Equal("Acme Accelerator", created.Organization.Name)
	s.Equal(models.StatusActive, created.Organization.Status)
	s.Equal(s.now, created.Organization.CreatedAt)
	s.Equal(stored, created.Organization)

	// The returned plaintext secret matches the stored hash. It is not
	// recoverable later, so it must be correct here.
	s.NotEmpty(created.APISecret)
	s.NoError(secrets.Verify(created.APISecret, created.Organization.APISecretHash))
}

func (s *OrganizationServiceSuite) TestCreateOrganizationNameTaken() {
	s.mockStore.EXPECT().
		CreateIfNameAvailable(gomock.Any(), gomock.Any()).
		Return(sentinel.ErrConflict)

	_, err := s.service.CreateOrganization(s.ctx, "Acme Accelerator")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *OrganizationServiceSuite) TestCreateOrganizationEmptyName() {
	_, err := s.service.CreateOrganization(s.ctx, "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *OrganizationServiceSuite) TestGetOrganization() {
	org := s.activeOrg("secret")
	s.mockStore.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)

	found, err := s.service.GetOrganization(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Equal(org, found)
}

func (s *OrganizationServiceSuite) TestGetOrganizationZeroID() {
	_, err := s.service.GetOrganization(s.ctx, id.OrganizationID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *OrganizationServiceSuite) TestGetOrganizationNotFound() {
	orgID := id.OrganizationID(uuid.New())
	s.mockStore.EXPECT().FindByID(gomock.Any(), orgID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service.GetOrganization(s.ctx, orgID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *OrganizationServiceSuite) TestDeactivateOrganization() {
	org := s.activeOrg("secret")
	s.mockStore.EXPECT().
		Execute(gomock.Any(), org.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
			if err := validate(org); err != nil {
				return nil, err
			}
			mutate(org)
			return org, nil
		})

	updated, err := s.service.DeactivateOrganization(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusInactive, updated.Status)
	s.Equal(s.now, updated.UpdatedAt)
}

func (s *OrganizationServiceSuite) TestDeactivateAlreadyInactive() {
	org := s.activeOrg("secret")
	org.Status = models.StatusInactive
	s.mockStore.EXPECT().
		Execute(gomock.Any(), org.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.OrganizationID, validate func(*models.Organization) error, _ func(*models.Organization)) (*models.Organization, error) {
			if err := validate(org); err != nil {
				return nil, err
			}
			return org, nil
		})

	_, err := s.service.DeactivateOrganization(s.ctx, org.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *OrganizationServiceSuite) TestReactivateOrganization() {
	org := s.activeOrg("secret")
	org.Status = models.StatusInactive
	s.mockStore.EXPECT().
		Execute(gomock.Any(), org.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
			if err := validate(org); err != nil {
				return nil, err
			}
			mutate(org)
			return org, nil
		})

	updated, err := s.service.ReactivateOrganization(s.ctx, org.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, updated.Status)
}

func (s *OrganizationServiceSuite) TestAuthenticate() {
	org := s.activeOrg("topsecret")
	s.mockStore.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)
	s.mockTokens.EXPECT().
		GenerateAccessToken(uuid.UUID(org.ID), uuid.UUID(org.ID), TokenTTL).
		Return("signed-token", nil)

	token, err := s.service.Authenticate(s.ctx, org.ID, "topsecret")
	s.Require().NoError(err)
	s.Equal("signed-token", token)
}

func (s *OrganizationServiceSuite) TestAuthenticateWrongSecret() {
	org := s.activeOrg("topsecret")
	s.mockStore.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)

	_, err := s.service.Authenticate(s.ctx, org.ID, "wrong")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *OrganizationServiceSuite) TestAuthenticateUnknownOrganization() {
	orgID := id.OrganizationID(uuid.New())
	s.mockStore.EXPECT().FindByID(gomock.Any(), orgID).Return(nil, sentinel.ErrNotFound)

	// Same answer as a wrong secret so existence is not disclosed.
	_, err := s.service.Authenticate(s.ctx, orgID, "anything")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *OrganizationServiceSuite) TestAuthenticateInactiveOrganization() {
	org := s.activeOrg("topsecret")
	org.Status = models.StatusInactive
	s.mockStore.EXPECT().FindByID(gomock.Any(), org.ID).Return(org, nil)

	_, err := s.service.Authenticate(s.ctx, org.ID, "topsecret")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

func seedStartup(orgID id.OrganizationID, name string, createdAt time.Time) *models.Startup {
	return &models.Startup{
		ID:             id.StartupID(uuid.New()),
		OrganizationID: orgID,
		Name:           name,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	orgID := id.OrganizationID(uuid.New())

	startup := seedStartup(orgID, "Rocketry", time.Now().UTC())
	require.NoError(t, store.Create(ctx, startup))

	t.Run("duplicate id conflicts", func(t *testing.T) {
		assert.ErrorIs(t, store.Create(ctx, startup), sentinel.ErrConflict)
	})

	t.Run("find returns a deep copy", func(t *testing.T) {
		found, err := store.Find(ctx, startup.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rocketry", found.Name)

		vertical := "fintech"
		found.Vertical = &vertical
		found.TargetMarkets = append(found.TargetMarkets, "latam")

		again, err := store.Find(ctx, startup.ID)
		require.NoError(t, err)
		assert.Nil(t, again.Vertical)
		assert.Empty(t, again.TargetMarkets)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Find(ctx, id.StartupID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestListByOrganization(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	orgID := id.OrganizationID(uuid.New())
	now := time.Now().UTC()

	second := seedStartup(orgID, "Second", now.Add(time.Minute))
	first := seedStartup(orgID, "First", now)
	other := seedStartup(id.OrganizationID(uuid.New()), "Other", now)
	for _, s := range []*models.Startup{second, first, other} {
		require.NoError(t, store.Create(ctx, s))
	}

	listed, err := store.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "First", listed[0].Name)
	assert.Equal(t, "Second", listed[1].Name)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()
	orgID := id.OrganizationID(uuid.New())

	startup := seedStartup(orgID, "Rocketry", time.Now().UTC())
	require.NoError(t, store.Create(ctx, startup))

	t.Run("persists profile changes", func(t *testing.T) {
		vertical := "healthtech"
		startup.Vertical = &vertical
		startup.TargetMarkets = []string{"brazil", "mexico"}
		require.NoError(t, store.Update(ctx, startup))

		found, err := store.Find(ctx, startup.ID)
		require.NoError(t, err)
		require.NotNil(t, found.Vertical)
		assert.Equal(t, "healthtech", *found.Vertical)
		assert.Equal(t, []string{"brazil", "mexico"}, found.TargetMarkets)
	})

	t.Run("stores a copy detached from the caller", func(t *testing.T) {
		*startup.Vertical = "mutated"
		found, err := store.Find(ctx, startup.ID)
		require.NoError(t, err)
		assert.Equal(t, "healthtech", *found.Vertical)
	})

	t.Run("unknown startup", func(t *testing.T) {
		missing := seedStartup(orgID, "Ghost", time.Now().UTC())
		assert.ErrorIs(t, store.Update(ctx, missing), sentinel.ErrNotFound)
	})
}

package store

import (
	"context"
	"sort"
	"sync"

	"launchpad/internal/startup/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// InMemory is the default startup store. Returns deep copies so profile
// mutations never leak into stored state before Update commits them.
type InMemory struct {
	mu       sync.RWMutex
	startups map[id.StartupID]*models.Startup
}

func NewInMemory() *InMemory {
	return &InMemory{startups: make(map[id.StartupID]*models.Startup)}
}

func (s *InMemory) Create(_ context.Context, startup *models.Startup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.startups[startup.ID]; exists {
		return sentinel.ErrConflict
	}
	s.startups[startup.ID] = copyStartup(startup)
	return nil
}

func (s *InMemory) Find(_ context.Context, startupID id.StartupID) (*models.Startup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	startup, ok := s.startups[startupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyStartup(startup), nil
}

func (s *InMemory) ListByOrganization(_ context.Context, orgID id.OrganizationID) ([]*models.Startup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Startup
	for _, startup := range s.startups {
		if startup.OrganizationID == orgID {
			out = append(out, copyStartup(startup))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, startup *models.Startup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.startups[startup.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.startups[startup.ID] = copyStartup(startup)
	return nil
}

// copyStartup deep-copies the aggregate, including pointer attributes and
// the target markets slice.
func copyStartup(src *models.Startup) *models.Startup {
	copied := *src
	copied.Vertical = copyPtr(src.Vertical)
	copied.BusinessModel = copyPtr(src.BusinessModel)
	copied.EmployeesQuantity = copyPtr(src.EmployeesQuantity)
	copied.AlreadyEarning = copyPtr(src.AlreadyEarning)
	copied.MonthlyRevenue = copyPtr(src.MonthlyRevenue)
	copied.FoundationDate = copyPtr(src.FoundationDate)
	copied.Pitch = copyPtr(src.Pitch)
	if src.TargetMarkets != nil {
		copied.TargetMarkets = append([]string(nil), src.TargetMarkets...)
	}
	return &copied
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

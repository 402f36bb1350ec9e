package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"launchpad/internal/organization/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// InMemory is the default organization store. Returns copies so callers can
// mutate results freely.
type InMemory struct {
	mu     sync.RWMutex
	orgs   map[id.OrganizationID]*models.Organization
	byName map[string]id.OrganizationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		orgs:   make(map[id.OrganizationID]*models.Organization),
		byName: make(map[string]id.OrganizationID),
	}
}

func (s *InMemory) CreateIfNameAvailable(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(org.Name)
	if _, taken := s.byName[key]; taken {
		return sentinel.ErrConflict
	}
	if _, exists := s.orgs[org.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *org
	s.orgs[org.ID] = &copied
	s.byName[key] = org.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orgID, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.orgs[orgID]
	return &copied, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		copied := *org
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Execute holds the write lock across validation and mutation so status
// transitions are atomic.
func (s *InMemory) Execute(_ context.Context, orgID id.OrganizationID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)
	copied := *org
	return &copied, nil
}

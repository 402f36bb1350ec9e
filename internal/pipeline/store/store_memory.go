package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"launchpad/internal/pipeline/models"
	id "launchpad/pkg/domain"
	"launchpad/pkg/platform/sentinel"
)

// InMemory is the default board store. It returns copies so callers can
// mutate results freely; all writes go through the store.
type InMemory struct {
	mu         sync.RWMutex
	programs   map[id.ProgramID]*models.Program
	stages     map[id.StageID]*models.Stage
	stageOrder map[id.ProgramID][]id.StageID
	rules      map[id.ProgramID][]*models.Rule
	cards      map[id.CardID]*models.Card
}

func NewInMemory() *InMemory {
	return &InMemory{
		programs:   make(map[id.ProgramID]*models.Program),
		stages:     make(map[id.StageID]*models.Stage),
		stageOrder: make(map[id.ProgramID][]id.StageID),
		rules:      make(map[id.ProgramID][]*models.Rule),
		cards:      make(map[id.CardID]*models.Card),
	}
}

func (s *InMemory) CreateProgram(_ context.Context, program *models.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.programs[program.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *program
	s.programs[program.ID] = &copied
	return nil
}

func (s *InMemory) FindProgram(_ context.Context, programID id.ProgramID) (*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	program, ok := s.programs[programID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *program
	return &copied, nil
}

func (s *InMemory) ListProgramsByOrganization(_ context.Context, orgID id.OrganizationID) ([]*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Program
	for _, program := range s.programs {
		if program.OrganizationID == orgID {
			copied := *program
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ListProgramsByStartup(_ context.Context, startupID id.StartupID) ([]*models.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[id.ProgramID]bool)
	var out []*models.Program
	for _, card := range s.cards {
		if card.StartupID != startupID {
			continue
		}
		stage, ok := s.stages[card.StageID]
		if !ok {
			continue
		}
		if seen[stage.ProgramID] {
			continue
		}
		seen[stage.ProgramID] = true
		if program, ok := s.programs[stage.ProgramID]; ok {
			copied := *program
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CreateStage(_ context.Context, stage *models.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stages[stage.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *stage
	s.stages[stage.ID] = &copied
	s.stageOrder[stage.ProgramID] = append(s.stageOrder[stage.ProgramID], stage.ID)
	return nil
}

func (s *InMemory) FindStage(_ context.Context, stageID id.StageID) (*models.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stage, ok := s.stages[stageID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *stage
	return &copied, nil
}

func (s *InMemory) ListStages(_ context.Context, programID id.ProgramID) ([]*models.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := s.stageOrder[programID]
	out := make([]*models.Stage, 0, len(order))
	for _, stageID := range order {
		if stage, ok := s.stages[stageID]; ok {
			copied := *stage
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *InMemory) CreateRule(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *rule
	s.rules[rule.ProgramID] = append(s.rules[rule.ProgramID], &copied)
	return nil
}

// ListRules preserves insertion order; the engine's first-match-wins
// semantics depend on it.
func (s *InMemory) ListRules(_ context.Context, programID id.ProgramID) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.rules[programID]
	out := make([]*models.Rule, 0, len(rules))
	for _, rule := range rules {
		copied := *rule
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemory) CreateCard(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cards[card.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *card
	s.cards[card.ID] = &copied
	return nil
}

func (s *InMemory) FindCard(_ context.Context, cardID id.CardID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *card
	return &copied, nil
}

func (s *InMemory) FindCardByStartupAndProgram(_ context.Context, startupID id.StartupID, programID id.ProgramID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, card := range s.cards {
		if card.StartupID != startupID {
			continue
		}
		stage, ok := s.stages[card.StageID]
		if !ok {
			continue
		}
		if stage.ProgramID == programID {
			copied := *card
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListCardsByStage(_ context.Context, stageID id.StageID) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Card
	for _, card := range s.cards {
		if card.StageID == stageID {
			copied := *card
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *InMemory) ReorderStage(_ context.Context, stageID id.StageID, orderedCardIDs []id.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for position, cardID := range orderedCardIDs {
		card, ok := s.cards[cardID]
		if !ok {
			return sentinel.ErrNotFound
		}
		card.StageID = stageID
		card.Position = position
		card.UpdatedAt = now
	}
	return nil
}

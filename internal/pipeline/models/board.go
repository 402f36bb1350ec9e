package models

import (
	"time"

	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
)

// Program is an accelerator program run by an organization. It owns an
// ordered set of stages and the rules that move startups between them.
type Program struct {
	ID             id.ProgramID      `json:"id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Name           string            `json:"name"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsActive reports whether the program still accepts transitions: its end
// date is in the future.
func (p *Program) IsActive(now time.Time) bool {
	return p.EndDate.After(now)
}

// NewProgram validates and constructs a program.
func NewProgram(programID id.ProgramID, orgID id.OrganizationID, name string, start, end, now time.Time) (*Program, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "program name cannot be empty")
	}
	if !end.After(start) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "program end date must be after start date")
	}
	return &Program{
		ID:             programID,
		OrganizationID: orgID,
		Name:           name,
		StartDate:      start,
		EndDate:        end,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Stage is one kanban column of a program. DisplayOrder ranks stages within
// the program; cards inside a stage carry their own dense positions.
type Stage struct {
	ID           id.StageID   `json:"id"`
	ProgramID    id.ProgramID `json:"program_id"`
	Name         string       `json:"name"`
	DisplayOrder int          `json:"display_order"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Card ties a startup to exactly one stage of one program.
//
// Invariant: positions of all cards in a stage form the contiguous range
// [0, N-1] with no gaps or duplicates, ascending by display order. Every
// mutation goes through the position ledger inside one transaction.
type Card struct {
	ID        id.CardID    `json:"id"`
	StageID   id.StageID   `json:"stage_id"`
	StartupID id.StartupID `json:"startup_id"`
	Position  int          `json:"position"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

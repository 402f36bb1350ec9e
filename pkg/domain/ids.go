// Package domain holds typed identifiers shared across the platform.
//
// Every aggregate gets its own UUID-backed type so a StageID can never be
// passed where a CardID is expected. Parsing enforces the invariant that
// IDs are valid, non-empty, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "launchpad/pkg/domain-errors"
)

type (
	// OrganizationID identifies a tenant organization.
	OrganizationID uuid.UUID
	// ProgramID identifies an accelerator program.
	ProgramID uuid.UUID
	// StageID identifies a pipeline stage (kanban column) within a program.
	StageID uuid.UUID
	// CardID identifies a startup's card within a stage.
	CardID uuid.UUID
	// StartupID identifies a startup.
	StartupID uuid.UUID
	// RuleID identifies an eligibility rule.
	RuleID uuid.UUID
	// UserID identifies an authenticated platform user.
	UserID uuid.UUID
)

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id ProgramID) String() string      { return uuid.UUID(id).String() }
func (id StageID) String() string        { return uuid.UUID(id).String() }
func (id CardID) String() string         { return uuid.UUID(id).String() }
func (id StartupID) String() string      { return uuid.UUID(id).String() }
func (id RuleID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }

func (id OrganizationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProgramID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id StageID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CardID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id StartupID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared parsing invariant for all ID types.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	if len(raw) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is malformed")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is malformed")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return parsed, nil
}

func ParseOrganizationID(raw string) (OrganizationID, error) {
	parsed, err := parseUUID(raw)
	return OrganizationID(parsed), err
}

func ParseProgramID(raw string) (ProgramID, error) {
	parsed, err := parseUUID(raw)
	return ProgramID(parsed), err
}

func ParseStageID(raw string) (StageID, error) {
	parsed, err := parseUUID(raw)
	return StageID(parsed), err
}

func ParseCardID(raw string) (CardID, error) {
	parsed, err := parseUUID(raw)
	return CardID(parsed), err
}

func ParseStartupID(raw string) (StartupID, error) {
	parsed, err := parseUUID(raw)
	return StartupID(parsed), err
}

func ParseRuleID(raw string) (RuleID, error) {
	parsed, err := parseUUID(raw)
	return RuleID(parsed), err
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	return UserID(parsed), err
}

package models

import (
	"time"

	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
)

// Status is the lifecycle state of an organization.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// CanTransitionTo reports whether the status may change to target. The only
// legal transitions are active ↔ inactive.
func (s Status) CanTransitionTo(target Status) bool {
	return s != target && (target == StatusActive || target == StatusInactive)
}

// Organization is the aggregate root for a tenant organization running
// accelerator programs.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status is either active or inactive
//   - CreatedAt is immutable after construction
//
// Deactivation is an immediate boundary: token issuance checks IsActive, so
// a suspended organization cannot obtain new API tokens. Existing tokens
// remain valid until expiry.
type Organization struct {
	ID        id.OrganizationID `json:"id"`
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// APISecretHash is the bcrypt hash of the organization's API secret.
	// Never serialized.
	APISecretHash string `json:"-"`
}

func (o *Organization) IsActive() bool {
	return o.Status == StatusActive
}

// CanDeactivate checks the transition to inactive. Use with
// ApplyDeactivation inside an Execute callback.
func (o *Organization) CanDeactivate() error {
	if !o.Status.CanTransitionTo(StatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already inactive")
	}
	return nil
}

func (o *Organization) ApplyDeactivation(now time.Time) {
	o.Status = StatusInactive
	o.UpdatedAt = now
}

// CanReactivate checks the transition back to active.
func (o *Organization) CanReactivate() error {
	if !o.Status.CanTransitionTo(StatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization is already active")
	}
	return nil
}

func (o *Organization) ApplyReactivation(now time.Time) {
	o.Status = StatusActive
	o.UpdatedAt = now
}

func NewOrganization(orgID id.OrganizationID, name, secretHash string, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name must be 128 characters or less")
	}
	return &Organization{
		ID:            orgID,
		Name:          name,
		Status:        StatusActive,
		APISecretHash: secretHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

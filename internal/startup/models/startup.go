package models

import (
	"time"

	id "launchpad/pkg/domain"
	dErrors "launchpad/pkg/domain-errors"
)

// Startup is the aggregate of a startup's typed profile attributes. Unset
// attributes are nil pointers (or an empty slice) so the snapshot builder
// can tell "absent" from a zero value.
type Startup struct {
	ID             id.StartupID      `json:"id"`
	OrganizationID id.OrganizationID `json:"organization_id"`
	Name           string            `json:"name"`

	Vertical          *string    `json:"vertical,omitempty"`
	BusinessModel     *string    `json:"business_model,omitempty"`
	EmployeesQuantity *int       `json:"employees_quantity,omitempty"`
	AlreadyEarning    *bool      `json:"already_earning,omitempty"`
	MonthlyRevenue    *float64   `json:"monthly_revenue,omitempty"`
	FoundationDate    *time.Time `json:"foundation_date,omitempty"`
	TargetMarkets     []string   `json:"target_markets,omitempty"`
	Pitch             *string    `json:"pitch,omitempty"`

	// ProfileFilledPercentage is derived from the share of filled profile
	// attributes. The transition engine gates on it being exactly 100.
	ProfileFilledPercentage int `json:"profile_filled_percentage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// profileAttributeCount is the number of attributes that count towards the
// filled percentage.
const profileAttributeCount = 8

// RecomputeFilledPercentage recalculates the derived completeness figure.
// Call after every profile mutation, before the engine runs.
func (s *Startup) RecomputeFilledPercentage() {
	filled := 0
	if s.Vertical != nil && *s.Vertical != "" {
		filled++
	}
	if s.BusinessModel != nil && *s.BusinessModel != "" {
		filled++
	}
	if s.EmployeesQuantity != nil {
		filled++
	}
	if s.AlreadyEarning != nil {
		filled++
	}
	if s.MonthlyRevenue != nil {
		filled++
	}
	if s.FoundationDate != nil {
		filled++
	}
	if len(s.TargetMarkets) > 0 {
		filled++
	}
	if s.Pitch != nil && *s.Pitch != "" {
		filled++
	}
	s.ProfileFilledPercentage = filled * 100 / profileAttributeCount
}

func NewStartup(startupID id.StartupID, orgID id.OrganizationID, name string, now time.Time) (*Startup, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "startup name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "startup name must be 128 characters or less")
	}
	return &Startup{
		ID:             startupID,
		OrganizationID: orgID,
		Name:           name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

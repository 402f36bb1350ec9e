package audit

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies audit events.
type Kind string

const (
	KindOrganizationCreated Kind = "organization.created"
	KindProgramCreated      Kind = "program.created"
	KindRuleCreated         Kind = "rule.created"
	KindStartupSubscribed   Kind = "startup.subscribed"
	KindCardMoved           Kind = "card.moved"
	KindStartupTransitioned Kind = "startup.transitioned"
)

// Event is one audit record. Subject identifies the entity acted on;
// Detail carries event-specific fields (stage ids, positions, rule ids).
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Kind       Kind              `json:"kind"`
	ActorID    string            `json:"actor_id,omitempty"`
	OrgID      string            `json:"org_id,omitempty"`
	SubjectID  string            `json:"subject_id"`
	UserAgent  string            `json:"user_agent,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// NewEvent constructs an event with a fresh ID.
func NewEvent(kind Kind, subjectID string, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		SubjectID:  subjectID,
		OccurredAt: occurredAt,
	}
}

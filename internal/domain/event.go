package domain

import (
	"context"
	"time"
)

// Event lifecycle statuses. Registration is only open for published events.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Event represents a community event. The registration subsystem treats events
// as read-only: capacity and deadline are consulted, never mutated.
// swagger:model Event
type Event struct {
	ID                   string     `json:"id"`
	OrganizerID          string     `json:"organizer_id"`
	Name                 string     `json:"name"`
	Status               string     `json:"status"`
	Capacity             *int       `json:"capacity"`              // nil means unlimited
	RegistrationDeadline *time.Time `json:"registration_deadline"` // nil means no deadline
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsOpenForRegistration reports whether the event accepts new registrations
// at the given instant: it must be published and the deadline, if any, must
// not have passed.
func (e *Event) IsOpenForRegistration(now time.Time) bool {
	if e.Status != EventStatusPublished {
		return false
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return false
	}
	return true
}

// EventRepository defines the read-only interface for event storage used by
// the registration subsystem.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetCapacityInfo derives the live capacity snapshot for the event from
	// its registrations. Returns ErrNotFound if the event does not exist.
	GetCapacityInfo(ctx context.Context, id string) (*CapacityInfo, error)
}

package domain

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Registration statuses. Transitions: confirmed -> checked_in,
// confirmed -> cancelled, waitlisted -> confirmed (promotion),
// waitlisted -> cancelled. cancelled and checked_in are terminal.
const (
	RegistrationStatusConfirmed  = "confirmed"
	RegistrationStatusWaitlisted = "waitlisted"
	RegistrationStatusCancelled  = "cancelled"
	RegistrationStatusCheckedIn  = "checked_in"
)

// MaxNotesLength is the maximum length of the free-form notes field.
const MaxNotesLength = 500

// UnlimitedCapacity is the sentinel returned by capacity queries when the
// event has no capacity limit.
const UnlimitedCapacity = -1

// Registration represents a user's registration for an event.
// WaitlistPosition is set iff status is waitlisted; CheckedIn is set iff
// status is checked_in; TicketID is issued when the registration is (or
// becomes) confirmed.
// swagger:model Registration
type Registration struct {
	ID               string     `json:"id"`
	EventID          string     `json:"event_id"`
	UserID           string     `json:"user_id"`
	Status           string     `json:"status"`
	RegisteredAt     time.Time  `json:"registered_at"`
	CheckedIn        *time.Time `json:"checked_in,omitempty"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty"`
	TicketID         *string    `json:"ticket_id,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// IsActive reports whether the registration still occupies the (event, user)
// pair, i.e. it has not been cancelled.
func (r *Registration) IsActive() bool {
	return r.Status != RegistrationStatusCancelled
}

// Cancel transitions the registration to cancelled. Only confirmed and
// waitlisted registrations can be cancelled.
func (r *Registration) Cancel() error {
	switch r.Status {
	case RegistrationStatusConfirmed, RegistrationStatusWaitlisted:
		r.Status = RegistrationStatusCancelled
		r.WaitlistPosition = nil
		return nil
	case RegistrationStatusCancelled:
		return fmt.Errorf("%w: registration is already cancelled", ErrInvalidInput)
	default:
		return fmt.Errorf("%w: checked-in registrations cannot be cancelled", ErrInvalidInput)
	}
}

// MarkCheckedIn transitions a confirmed registration to checked_in at the
// given instant. Repeated check-ins fail rather than silently succeed.
func (r *Registration) MarkCheckedIn(now time.Time) error {
	if r.Status != RegistrationStatusConfirmed {
		return fmt.Errorf("%w: only confirmed registrations can be checked in", ErrInvalidInput)
	}
	r.Status = RegistrationStatusCheckedIn
	r.CheckedIn = &now
	return nil
}

// Promote moves a waitlisted registration to confirmed, clearing its waitlist
// position and issuing the given ticket.
func (r *Registration) Promote(ticketID string) error {
	if r.Status != RegistrationStatusWaitlisted {
		return fmt.Errorf("%w: only waitlisted registrations can be promoted", ErrInvalidInput)
	}
	r.Status = RegistrationStatusConfirmed
	r.WaitlistPosition = nil
	r.TicketID = &ticketID
	return nil
}

// ValidateNotes checks the notes field against the length limit.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, MaxNotesLength)
	}
	return nil
}

// CapacityInfo is a point-in-time capacity snapshot for an event.
// Total and Available are UnlimitedCapacity (-1) for events without a
// capacity limit.
// swagger:model CapacityInfo
type CapacityInfo struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Waitlist  int `json:"waitlist"`
}

// RegistrationWithEvent bundles a registration with its related event.
type RegistrationWithEvent struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// RegistrationRepository defines storage operations for registrations. The
// Register and CancelAndPromote operations are transactional: the capacity
// decision and the waitlist promotion each happen atomically under a row
// lock so that concurrent writers cannot overbook or double-promote.
type RegistrationRepository interface {
	// Register decides confirmed vs waitlisted against the event's capacity
	// and inserts the registration in a single transaction. ticketID is
	// attached only when the registration comes out confirmed.
	// Returns ErrNotFound if the event is missing and ErrAlreadyRegistered
	// if a non-cancelled registration exists for (eventID, userID).
	Register(ctx context.Context, eventID, userID, notes, ticketID string, now time.Time) (*Registration, error)

	// CancelAndPromote cancels the registration and, if it was confirmed,
	// promotes the lowest-position waitlisted registration for the same
	// event within the same transaction, serialized against Register on the
	// event row. promotionTicketID is attached to the promoted registration,
	// if any. Returns the cancelled registration and the promoted one (nil
	// when nothing was promoted).
	CancelAndPromote(ctx context.Context, registrationID, promotionTicketID string) (*Registration, *Registration, error)

	// CheckIn conditionally transitions a confirmed registration to
	// checked_in. Returns ErrNotFound when the registration does not exist
	// or is not currently confirmed.
	CheckIn(ctx context.Context, registrationID string, now time.Time) (*Registration, error)

	GetByID(ctx context.Context, id string) (*Registration, error)
	ListByUserID(ctx context.Context, userID string) ([]*Registration, error)
	ListByEventID(ctx context.Context, eventID string, page PaginationParams) ([]*Registration, error)
	CountByEventID(ctx context.Context, eventID string) (int, error)
	UpdateNotes(ctx context.Context, id, notes string) (*Registration, error)
}

// RegistrationService defines the operations exposed to the delivery layer.
type RegistrationService interface {
	RegisterForEvent(ctx context.Context, userID, eventID, notes string) (*Registration, error)
	CancelRegistration(ctx context.Context, userID, registrationID string) (*Registration, error)
	CheckInUser(ctx context.Context, organizerID, registrationID string) (*Registration, error)
	GetRegistrationByID(ctx context.Context, userID, registrationID string) (*Registration, error)
	GetUserRegistrations(ctx context.Context, userID string) ([]*RegistrationWithEvent, error)
	GetEventRegistrations(ctx context.Context, organizerID, eventID string, page PaginationParams) ([]*Registration, int, error)
	UpdateRegistration(ctx context.Context, userID, registrationID, notes string) (*Registration, error)
	GetEventCapacity(ctx context.Context, eventID string) (*CapacityInfo, error)
}

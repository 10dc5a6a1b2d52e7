package postgres

import (
	"context"
	"database/sql"
	"errors"

	"communityevents/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, organizer_id, name, status, capacity, registration_deadline, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var capNull sql.NullInt64
	var deadlineNull sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.OrganizerID, &e.Name, &e.Status,
		&capNull, &deadlineNull, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if capNull.Valid {
		c := int(capNull.Int64)
		e.Capacity = &c
	}
	if deadlineNull.Valid {
		d := deadlineNull.Time
		e.RegistrationDeadline = &d
	}
	return e, nil
}

// GetCapacityInfo counts confirmed and waitlisted registrations against the
// event's capacity in a single statement, so the snapshot is consistent at
// the instant of the read.
func (r *eventRepository) GetCapacityInfo(ctx context.Context, id string) (*domain.CapacityInfo, error) {
	query := `
		SELECT e.capacity,
			COUNT(*) FILTER (WHERE r.status = 'confirmed') AS confirmed,
			COUNT(*) FILTER (WHERE r.status = 'waitlisted') AS waitlisted
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.id, e.capacity
	`
	var capNull sql.NullInt64
	var confirmed, waitlisted int
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&capNull, &confirmed, &waitlisted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	info := &domain.CapacityInfo{Waitlist: waitlisted}
	if !capNull.Valid {
		info.Total = domain.UnlimitedCapacity
		info.Available = domain.UnlimitedCapacity
		return info, nil
	}
	info.Total = int(capNull.Int64)
	info.Available = info.Total - confirmed
	if info.Available < 0 {
		info.Available = 0
	}
	return info, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityevents/internal/domain"
)

const registrationColumns = "id, event_id, user_id, status, registered_at, checked_in, waitlist_position, ticket_id, notes"

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var checkedInNull sql.NullTime
	var posNull sql.NullInt64
	var ticketNull, notesNull sql.NullString
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.RegisteredAt,
		&checkedInNull, &posNull, &ticketNull, &notesNull,
	)
	if err != nil {
		return nil, err
	}
	if checkedInNull.Valid {
		t := checkedInNull.Time
		reg.CheckedIn = &t
	}
	if posNull.Valid {
		p := int(posNull.Int64)
		reg.WaitlistPosition = &p
	}
	if ticketNull.Valid {
		s := ticketNull.String
		reg.TicketID = &s
	}
	if notesNull.Valid {
		s := notesNull.String
		reg.Notes = &s
	}
	return reg, nil
}

// Register decides confirmed vs waitlisted and inserts the row in a single
// transaction. The event row is locked FOR UPDATE first, which serializes
// concurrent registrations for the same event: the confirmed count read below
// cannot go stale before the insert commits, so confirmed registrations never
// exceed capacity.
func (r *registrationRepository) Register(ctx context.Context, eventID, userID, notes, ticketID string, now time.Time) (*domain.Registration, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capNull sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&capNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var active int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'`,
		eventID, userID,
	).Scan(&active)
	if err != nil {
		return nil, fmt.Errorf("check duplicate registration: %w", err)
	}
	if active > 0 {
		err = domain.ErrAlreadyRegistered
		return nil, err
	}

	reg := &domain.Registration{
		EventID:      eventID,
		UserID:       userID,
		Status:       domain.RegistrationStatusConfirmed,
		RegisteredAt: now,
	}
	if capNull.Valid {
		var confirmed int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'confirmed'`,
			eventID,
		).Scan(&confirmed)
		if err != nil {
			return nil, fmt.Errorf("count confirmed registrations: %w", err)
		}
		if confirmed >= int(capNull.Int64) {
			var pos int
			err = tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(waitlist_position), 0) + 1 FROM registrations WHERE event_id = $1 AND status = 'waitlisted'`,
				eventID,
			).Scan(&pos)
			if err != nil {
				return nil, fmt.Errorf("next waitlist position: %w", err)
			}
			reg.Status = domain.RegistrationStatusWaitlisted
			reg.WaitlistPosition = &pos
		}
	}
	if reg.Status == domain.RegistrationStatusConfirmed {
		reg.TicketID = &ticketID
	}
	if notes != "" {
		reg.Notes = &notes
	}

	var posArg sql.NullInt64
	if reg.WaitlistPosition != nil {
		posArg = sql.NullInt64{Int64: int64(*reg.WaitlistPosition), Valid: true}
	}
	var ticketArg, notesArg sql.NullString
	if reg.TicketID != nil {
		ticketArg = sql.NullString{String: *reg.TicketID, Valid: true}
	}
	if reg.Notes != nil {
		notesArg = sql.NullString{String: *reg.Notes, Valid: true}
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO registrations (event_id, user_id, status, registered_at, waitlist_position, ticket_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		reg.EventID, reg.UserID, reg.Status, reg.RegisteredAt, posArg, ticketArg, notesArg,
	).Scan(&reg.ID)
	if err != nil {
		// Partial unique index on (event_id, user_id) over non-cancelled rows
		// backstops the duplicate probe above.
		if isUniqueViolation(err) {
			err = domain.ErrAlreadyRegistered
			return nil, err
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

// CancelAndPromote cancels the registration and, when it held a confirmed
// slot, hands that slot to the head of the waitlist within the same
// transaction. The event row is locked first, in the same order as Register,
// so a cancel and a registration for one event fully serialize: a cancel can
// never commit between a registration's capacity read and its insert. SKIP
// LOCKED on the waitlist pick keeps two concurrent cancellations from
// promoting the same row.
func (r *registrationRepository) CancelAndPromote(ctx context.Context, registrationID, promotionTicketID string) (*domain.Registration, *domain.Registration, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var eventID string
	err = tx.QueryRowContext(ctx,
		`SELECT event_id FROM registrations WHERE id = $1`,
		registrationID,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("resolve event for registration: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT id FROM events WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock event row: %w", err)
	}

	reg, err := scanRegistration(tx.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`,
		registrationID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock registration row: %w", err)
	}

	wasConfirmed := reg.Status == domain.RegistrationStatusConfirmed
	if err = reg.Cancel(); err != nil {
		return nil, nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE registrations SET status = 'cancelled', waitlist_position = NULL WHERE id = $1`,
		reg.ID,
	); err != nil {
		return nil, nil, fmt.Errorf("cancel registration: %w", err)
	}

	var promoted *domain.Registration
	if wasConfirmed {
		var promoteID string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM registrations
			WHERE event_id = $1 AND status = 'waitlisted'
			ORDER BY waitlist_position ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED`,
			reg.EventID,
		).Scan(&promoteID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = nil
		case err != nil:
			return nil, nil, fmt.Errorf("pick waitlist head: %w", err)
		default:
			promoted, err = scanRegistration(tx.QueryRowContext(ctx,
				`UPDATE registrations
				SET status = 'confirmed', waitlist_position = NULL, ticket_id = $2
				WHERE id = $1
				RETURNING `+registrationColumns,
				promoteID, promotionTicketID,
			))
			if err != nil {
				return nil, nil, fmt.Errorf("promote waitlisted registration: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, promoted, nil
}

// CheckIn transitions a confirmed registration to checked_in. The status
// guard in the UPDATE makes repeat check-ins report ErrNotFound instead of
// silently succeeding.
func (r *registrationRepository) CheckIn(ctx context.Context, registrationID string, now time.Time) (*domain.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx,
		`UPDATE registrations
		SET status = 'checked_in', checked_in = $2
		WHERE id = $1 AND status = 'confirmed'
		RETURNING `+registrationColumns,
		registrationID, now,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY registered_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) ListByEventID(ctx context.Context, eventID string, page domain.PaginationParams) ([]*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		ORDER BY registered_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *registrationRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *registrationRepository) UpdateNotes(ctx context.Context, id, notes string) (*domain.Registration, error) {
	var notesArg sql.NullString
	if notes != "" {
		notesArg = sql.NullString{String: notes, Valid: true}
	}
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx,
		`UPDATE registrations SET notes = $2 WHERE id = $1 RETURNING `+registrationColumns,
		id, notesArg,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

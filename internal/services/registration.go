package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"communityevents/internal/domain"
)

// notifyTimeout bounds the detached notification dispatch so a slow mail
// provider cannot pin goroutines forever.
const notifyTimeout = 15 * time.Second

type registrationService struct {
	logger    *slog.Logger
	eventRepo domain.EventRepository
	userRepo  domain.UserRepository
	regRepo   domain.RegistrationRepository
	notifier  domain.NotificationService
	now       func() time.Time
}

// NewRegistrationService creates a RegistrationService with the given
// repositories and notification boundary.
func NewRegistrationService(
	logger *slog.Logger,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	regRepo domain.RegistrationRepository,
	notifier domain.NotificationService,
) domain.RegistrationService {
	return &registrationService{
		logger:    logger,
		eventRepo: eventRepo,
		userRepo:  userRepo,
		regRepo:   regRepo,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *registrationService) RegisterForEvent(ctx context.Context, userID, eventID, notes string) (*domain.Registration, error) {
	if err := domain.ValidateNotes(notes); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	if !event.IsOpenForRegistration(now) {
		reason := "event is not open for registration"
		if event.Status == domain.EventStatusPublished {
			reason = "registration deadline has passed"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason)
	}

	// The capacity decision happens inside the repository transaction; the
	// ticket is only attached if the registration comes out confirmed.
	reg, err := s.regRepo.Register(ctx, eventID, userID, notes, uuid.NewString(), now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	if reg.Status == domain.RegistrationStatusConfirmed {
		s.notifyAsync("registration confirmation", s.notifier.NotifyRegistrationConfirmation, userID, eventID)
	}
	return reg, nil
}

func (s *registrationService) CancelRegistration(ctx context.Context, userID, registrationID string) (*domain.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.UserID != userID {
		return nil, domain.ErrForbidden
	}

	// State is re-checked under the row lock; the fetch above is only for
	// the ownership check.
	cancelled, promoted, err := s.regRepo.CancelAndPromote(ctx, registrationID, uuid.NewString())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}

	if promoted != nil {
		s.notifyAsync("waitlist promotion", s.notifier.NotifyWaitlistAvailable, promoted.UserID, promoted.EventID)
	}
	return cancelled, nil
}

func (s *registrationService) CheckInUser(ctx context.Context, organizerID, registrationID string) (*domain.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, domain.ErrForbidden
	}
	if reg.Status != domain.RegistrationStatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed registrations can be checked in", domain.ErrInvalidInput)
	}

	checked, err := s.regRepo.CheckIn(ctx, registrationID, s.now())
	if err != nil {
		// A concurrent transition between the fetch and the conditional
		// update surfaces as not-found from the guarded UPDATE.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: only confirmed registrations can be checked in", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("check in registration: %w", err)
	}
	return checked, nil
}

func (s *registrationService) GetRegistrationByID(ctx context.Context, userID, registrationID string) (*domain.Registration, error) {
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.UserID == userID {
		return reg, nil
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != userID {
		return nil, domain.ErrForbidden
	}
	return reg, nil
}

func (s *registrationService) GetUserRegistrations(ctx context.Context, userID string) ([]*domain.RegistrationWithEvent, error) {
	regs, err := s.regRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	// Fetch events one by one (N+1). This keeps the implementation simple;
	// we can optimize later if needed.
	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.RegistrationWithEvent, 0, len(regs))

	for _, reg := range regs {
		ev, ok := eventsByID[reg.EventID]
		if !ok {
			ev, err = s.eventRepo.GetByID(ctx, reg.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Event deleted but registration remains; skip this entry.
					continue
				}
				return nil, fmt.Errorf("get event for registration: %w", err)
			}
			eventsByID[reg.EventID] = ev
		}
		result = append(result, &domain.RegistrationWithEvent{
			Registration: reg,
			Event:        ev,
		})
	}
	return result, nil
}

func (s *registrationService) GetEventRegistrations(ctx context.Context, organizerID, eventID string, page domain.PaginationParams) ([]*domain.Registration, int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OrganizerID != organizerID {
		return nil, 0, domain.ErrForbidden
	}

	regs, err := s.regRepo.ListByEventID(ctx, eventID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list event registrations: %w", err)
	}
	total, err := s.regRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, 0, fmt.Errorf("count event registrations: %w", err)
	}
	return regs, total, nil
}

func (s *registrationService) UpdateRegistration(ctx context.Context, userID, registrationID, notes string) (*domain.Registration, error) {
	if err := domain.ValidateNotes(notes); err != nil {
		return nil, err
	}
	reg, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if reg.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if !reg.IsActive() {
		return nil, fmt.Errorf("%w: cancelled registrations cannot be updated", domain.ErrInvalidInput)
	}

	updated, err := s.regRepo.UpdateNotes(ctx, registrationID, notes)
	if err != nil {
		return nil, fmt.Errorf("update registration notes: %w", err)
	}
	return updated, nil
}

func (s *registrationService) GetEventCapacity(ctx context.Context, eventID string) (*domain.CapacityInfo, error) {
	info, err := s.eventRepo.GetCapacityInfo(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get capacity info: %w", err)
	}
	return info, nil
}

// notifyAsync dispatches a notification on a detached goroutine. Failures are
// logged and never surfaced: a committed registration must not be failed by
// its notification.
func (s *registrationService) notifyAsync(kind string, fn func(ctx context.Context, userID, eventID string) error, userID, eventID string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := fn(ctx, userID, eventID); err != nil {
			s.logger.Warn("notification failed",
				"kind", kind,
				"user_id", userID,
				"event_id", eventID,
				"err", err,
			)
		}
	}()
}

package services

import (
	"context"
	"fmt"

	"communityevents/internal/domain"
)

type notificationService struct {
	mailer    domain.Mailer
	renderer  domain.EmailTemplateRenderer
	userRepo  domain.UserRepository
	eventRepo domain.EventRepository
}

// NewNotificationService returns a NotificationService that emails users via
// the given Mailer and template renderer.
func NewNotificationService(
	mailer domain.Mailer,
	renderer domain.EmailTemplateRenderer,
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
) domain.NotificationService {
	return &notificationService{
		mailer:    mailer,
		renderer:  renderer,
		userRepo:  userRepo,
		eventRepo: eventRepo,
	}
}

func (s *notificationService) NotifyRegistrationConfirmation(ctx context.Context, userID, eventID string) error {
	return s.send(ctx, "registration_confirmed", userID, eventID)
}

func (s *notificationService) NotifyWaitlistAvailable(ctx context.Context, userID, eventID string) error {
	return s.send(ctx, "waitlist_available", userID, eventID)
}

func (s *notificationService) send(ctx context.Context, templateName, userID, eventID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for notification: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("get event for notification: %w", err)
	}
	data := &domain.RegistrationEmailData{
		Email:     user.Email,
		FirstName: user.Name,
		EventName: event.Name,
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(user.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send %s email: %w", templateName, err)
	}
	return nil
}

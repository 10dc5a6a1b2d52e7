package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for the registration confirmation and
// waitlist promotion emails.
type RegistrationEmailData struct {
	Email     string
	FirstName string
	EventName string
}

// NotificationService notifies users of registration outcomes. Calls are
// best-effort: the registration subsystem dispatches them asynchronously and
// logs failures instead of surfacing them.
type NotificationService interface {
	NotifyRegistrationConfirmation(ctx context.Context, userID, eventID string) error
	NotifyWaitlistAvailable(ctx context.Context, userID, eventID string) error
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communityevents/internal/domain"
)

type fakeMailer struct {
	to      string
	subject string
	err     error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	f.to = to
	f.subject = subject
	return f.err
}

type fakeRenderer struct {
	lastTemplate string
	err          error
}

func (f *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	f.lastTemplate = templateName
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject", "<p>html</p>", "text", nil
}

func newNotificationFixture() (*fakeMailer, *fakeRenderer, domain.NotificationService) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	users := &fakeUserRepository{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "one@example.com", Name: "One"},
	}}
	events := &fakeEventRepository{events: map[string]*domain.Event{
		"ev-1": {ID: "ev-1", Name: "Community Meetup"},
	}}
	return mailer, renderer, NewNotificationService(mailer, renderer, users, events)
}

func TestNotificationService_Confirmation(t *testing.T) {
	mailer, renderer, svc := newNotificationFixture()

	err := svc.NotifyRegistrationConfirmation(context.Background(), "user-1", "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "registration_confirmed", renderer.lastTemplate)
	assert.Equal(t, "one@example.com", mailer.to)
	assert.Equal(t, "subject", mailer.subject)
}

func TestNotificationService_WaitlistAvailable(t *testing.T) {
	mailer, renderer, svc := newNotificationFixture()

	err := svc.NotifyWaitlistAvailable(context.Background(), "user-1", "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "waitlist_available", renderer.lastTemplate)
	assert.Equal(t, "one@example.com", mailer.to)
}

func TestNotificationService_Errors(t *testing.T) {
	mailer, renderer, svc := newNotificationFixture()

	err := svc.NotifyRegistrationConfirmation(context.Background(), "ghost", "ev-1")
	require.Error(t, err)

	err = svc.NotifyRegistrationConfirmation(context.Background(), "user-1", "ev-missing")
	require.Error(t, err)

	renderer.err = errors.New("bad template")
	err = svc.NotifyRegistrationConfirmation(context.Background(), "user-1", "ev-1")
	require.Error(t, err)

	renderer.err = nil
	mailer.err = errors.New("ses down")
	err = svc.NotifyRegistrationConfirmation(context.Background(), "user-1", "ev-1")
	require.Error(t, err)
}

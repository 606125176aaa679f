package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "parker/internal/adapters/email"
	"parker/internal/domain/contact"
	domainOutbox "parker/internal/domain/outbox"
)

// ContactStore persists contact messages.
type ContactStore interface {
	Save(ctx context.Context, m contact.Message) error
}

// ContactInput carries the contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactDeps holds dependencies for SubmitContact.
type ContactDeps struct {
	Messages   ContactStore
	Outbox     OutboxSaver
	Sender     emailAdapter.Sender
	Inbox      string
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSubmitContact validates and stores an enquiry, then notifies the company inbox.
// Field errors are returned as a value; err is reserved for storage failures.
// PRE: none
// POST: on success the message is stored and a notification is queued
func ExecuteSubmitContact(ctx context.Context, input ContactInput, deps ContactDeps) (contact.FieldErrors, error) {
	m := contact.Message{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Body:    input.Message,
	}
	m.Normalize()
	if fe := m.Validate(); fe != nil {
		return fe, nil
	}

	now := deps.Now()
	m.ID = deps.GenerateID()
	m.CreatedAt = now
	if err := deps.Messages.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}
	slog.Info("contact_event", "event", "received", "message_id", m.ID)

	if deps.Inbox == "" {
		return nil, nil
	}
	html, err := renderEmail("contact", m)
	if err != nil {
		return nil, err
	}
	entry, err := enqueueEmail(ctx, deps.Outbox, deps.GenerateID(), domainOutbox.EmailPayload{
		To:      []string{deps.Inbox},
		Subject: "[Contact] " + m.Subject,
		HTML:    html,
		ReplyTo: m.Email,
	}, now)
	if err != nil {
		return nil, err
	}
	if err := deliverEntry(ctx, entry, deps.Outbox, deps.Sender, deps.Now()); err != nil {
		slog.Warn("contact_event", "event", "notification_deferred", "message_id", m.ID, "error", err)
	}
	return nil, nil
}

package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	emailAdapter "parker/internal/adapters/email"
	domainOutbox "parker/internal/domain/outbox"
)

// OutboxSaver is the narrow outbox store needed to enqueue and record deliveries.
type OutboxSaver interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// CompanyName is used in email subjects and bodies.
const CompanyName = "PARKER INTELLIGENT SYSTEMS"

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "welcome"}}<p>Hi {{.Name}},</p>
<p>Thanks for applying to join the <strong>{{.TierName}}</strong> team ({{.Price}}) at {{.Company}}.</p>
<p>Your verification code is <strong>{{.Code}}</strong>. Enter it at <a href="{{.VerifyURL}}">{{.VerifyURL}}</a> within 24 hours.</p>
<p>The {{.Company}} team</p>{{end}}
{{define "contact"}}<p>New enquiry from {{.Name}} &lt;{{.Email}}&gt;</p>
<p><strong>{{.Subject}}</strong></p>
<p>{{.Body}}</p>{{end}}
`))

func renderEmail(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// enqueueEmail records an email in the outbox.
// POST: a pending entry exists; nothing has been sent yet
func enqueueEmail(ctx context.Context, store OutboxSaver, id string, p domainOutbox.EmailPayload, now time.Time) (domainOutbox.Entry, error) {
	entry, err := domainOutbox.NewEmail(id, p, now)
	if err != nil {
		return domainOutbox.Entry{}, err
	}
	if err := store.Save(ctx, entry); err != nil {
		return domainOutbox.Entry{}, fmt.Errorf("enqueue email: %w", err)
	}
	return entry, nil
}

// deliverEntry makes one delivery attempt and saves the outcome.
// PRE: entry is an email entry that CanRetry
// POST: entry is saved as done, retrying or failed
func deliverEntry(ctx context.Context, entry domainOutbox.Entry, store OutboxSaver, sender emailAdapter.Sender, now time.Time) error {
	entry.MarkAttempt(now)

	var sendErr error
	var messageID string
	switch entry.ActionType {
	case domainOutbox.ActionTypeEmail:
		var p domainOutbox.EmailPayload
		p, sendErr = entry.Email()
		if sendErr == nil {
			var res emailAdapter.SendResult
			res, sendErr = sender.Send(ctx, emailAdapter.SendRequest{To: p.To, Subject: p.Subject, HTML: p.HTML, ReplyTo: p.ReplyTo})
			messageID = res.MessageID
		}
	default:
		sendErr = fmt.Errorf("unknown action type: %s", entry.ActionType)
	}

	if sendErr != nil {
		entry.MarkFailed(sendErr)
		slog.Warn("outbox_event", "event", "attempt_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", sendErr)
	} else {
		entry.MarkSuccess(messageID)
		slog.Info("outbox_event", "event", "delivered", "entry_id", entry.ID, "attempt", entry.Attempts, "external_id", messageID)
	}

	if err := store.Save(ctx, entry); err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return sendErr
}

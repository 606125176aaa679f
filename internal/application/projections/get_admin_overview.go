package projections

import (
	"context"
	"fmt"

	"parker/internal/domain/contact"
	"parker/internal/domain/outbox"
	"parker/internal/domain/tier"
)

// OverviewUserStore counts registered users.
type OverviewUserStore interface {
	Count(ctx context.Context) (int, error)
}

// OverviewApplicationStore groups membership applications by tier.
type OverviewApplicationStore interface {
	CountByTier(ctx context.Context) (map[string]int, error)
}

// OverviewContactStore lists recent enquiries.
type OverviewContactStore interface {
	ListRecent(ctx context.Context, limit int) ([]contact.Message, error)
}

// OverviewOutboxStore lists undelivered email.
type OverviewOutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
	ListFailed(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// GetAdminOverviewDeps holds dependencies for the admin overview projection.
type GetAdminOverviewDeps struct {
	Users        OverviewUserStore
	Applications OverviewApplicationStore
	Contacts     OverviewContactStore
	Outbox       OverviewOutboxStore
	Limit        int // rows per list; 0 means 20
}

// TierCount is the number of applications for one catalog tier.
type TierCount struct {
	Tier  tier.Option
	Count int
}

// FailedEmail is a dead outbox entry with its decoded subject line.
type FailedEmail struct {
	Entry   outbox.Entry
	To      string
	Subject string
}

// AdminOverview carries the output of the admin overview projection.
type AdminOverview struct {
	Users        int
	Applications int
	Tiers        []TierCount
	Enquiries    []contact.Message
	PendingEmail int
	FailedEmail  []FailedEmail
}

// GetAdminOverview summarises signups, enquiries and email delivery for administrators.
// POST: Tiers follows catalog order and includes tiers with no applications
func GetAdminOverview(ctx context.Context, deps GetAdminOverviewDeps) (AdminOverview, error) {
	limit := deps.Limit
	if limit <= 0 {
		limit = 20
	}
	var out AdminOverview

	users, err := deps.Users.Count(ctx)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("count users: %w", err)
	}
	out.Users = users

	byTier, err := deps.Applications.CountByTier(ctx)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("count applications: %w", err)
	}
	for _, opt := range tier.All() {
		n := byTier[opt.ID]
		out.Tiers = append(out.Tiers, TierCount{Tier: opt, Count: n})
		out.Applications += n
	}

	if out.Enquiries, err = deps.Contacts.ListRecent(ctx, limit); err != nil {
		return AdminOverview{}, fmt.Errorf("list enquiries: %w", err)
	}

	pending, err := deps.Outbox.ListPending(ctx, limit)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("list pending email: %w", err)
	}
	out.PendingEmail = len(pending)

	failed, err := deps.Outbox.ListFailed(ctx, limit)
	if err != nil {
		return AdminOverview{}, fmt.Errorf("list failed email: %w", err)
	}
	for _, e := range failed {
		fe := FailedEmail{Entry: e}
		// undecodable payloads are still listed, without a subject
		if p, err := e.Email(); err == nil {
			fe.Subject = p.Subject
			if len(p.To) > 0 {
				fe.To = p.To[0]
			}
		}
		out.FailedEmail = append(out.FailedEmail, fe)
	}
	return out, nil
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

// Aggregator derives the ranked conversation list for a user from
// the message log. It holds no state of its own: every call recomputes
// from the repositories, which is what lets realtime consumers simply
// re-run it on each insert event.
//
// Granularity is one conversation per partner. Two users discussing
// two different listings still collapse into a single entry; the
// product filter applies to history lookups only. This mirrors the
// current product behavior and is a product decision, not a technical
// constraint.
type Aggregator struct {
	Messages domainchat.MessageRepository
	Profiles domainuser.ProfileRepository
	Logger   *slog.Logger
}

// ListConversations returns one entry per conversation partner,
// ordered by last message time descending (partner id ascending on
// ties). A failing partner lookup drops that entry, never the whole
// list.
func (a *Aggregator) ListConversations(ctx context.Context, selfID string) ([]domainchat.Conversation, error) {
	if selfID == "" {
		return nil, domainchat.ErrSenderRequired
	}
	partners, err := a.partnerSet(ctx, selfID)
	if err != nil {
		return nil, err
	}

	conversations := make([]domainchat.Conversation, 0, len(partners))
	for _, partnerID := range partners {
		entry, ok := a.buildEntry(ctx, selfID, partnerID)
		if !ok {
			continue
		}
		conversations = append(conversations, entry)
	}

	sort.Slice(conversations, func(i, j int) bool {
		ti, tj := conversations[i].LastMessage.CreatedAt, conversations[j].LastMessage.CreatedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return conversations[i].Partner.ID < conversations[j].Partner.ID
	})
	return conversations, nil
}

// partnerSet unions the distinct counterparties from both message
// directions. Two directional queries instead of one OR query keeps
// the repository contract down to what any store can index.
func (a *Aggregator) partnerSet(ctx context.Context, selfID string) ([]string, error) {
	sentTo, err := a.Messages.DistinctReceivers(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("list sent partners: %w", err)
	}
	receivedFrom, err := a.Messages.DistinctSenders(ctx, selfID)
	if err != nil {
		return nil, fmt.Errorf("list received partners: %w", err)
	}
	seen := make(map[string]struct{}, len(sentTo)+len(receivedFrom))
	partners := make([]string, 0, len(sentTo)+len(receivedFrom))
	for _, id := range append(sentTo, receivedFrom...) {
		if id == "" || id == selfID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		partners = append(partners, id)
	}
	return partners, nil
}

func (a *Aggregator) buildEntry(ctx context.Context, selfID, partnerID string) (domainchat.Conversation, bool) {
	last, err := a.Messages.Latest(ctx, selfID, partnerID)
	if err != nil {
		// A partner without a latest message should not occur given
		// how the partner set was built; guards against races with
		// concurrent inserts.
		if !errors.Is(err, domainchat.ErrNotFound) && a.Logger != nil {
			a.Logger.Warn("latest message lookup failed", "partner_id", partnerID, "error", err)
		}
		return domainchat.Conversation{}, false
	}
	unread, err := a.Messages.CountUnreadFrom(ctx, selfID, partnerID)
	if err != nil {
		if a.Logger != nil {
			a.Logger.Warn("unread count lookup failed", "partner_id", partnerID, "error", err)
		}
		unread = 0
	}
	profile := a.partnerProfile(ctx, partnerID)
	return domainchat.Conversation{
		Partner:     profile,
		LastMessage: *last,
		UnreadCount: unread,
	}, true
}

// partnerProfile degrades to a bare-id profile when the lookup fails,
// so one missing profile row cannot blank the conversation list.
func (a *Aggregator) partnerProfile(ctx context.Context, partnerID string) domainuser.Profile {
	profile, err := a.Profiles.ByID(ctx, partnerID)
	if err != nil {
		if !errors.Is(err, domainuser.ErrNotFound) && a.Logger != nil {
			a.Logger.Warn("partner profile lookup failed", "partner_id", partnerID, "error", err)
		}
		return domainuser.Profile{ID: partnerID}
	}
	return *profile
}

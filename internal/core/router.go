package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/store"
)

// Router fans events out to subsets of the registry based on role. Fan-out
// enumerates an immutable registry snapshot, and a failed or slow recipient
// never affects the others.
type Router struct {
	registry *Registry
	presence *Tracker
	log      *zerolog.Logger
}

// NewRouter constructs a router over the registry and presence tracker.
func NewRouter(registry *Registry, presence *Tracker, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		presence: presence,
		log:      logger,
	}
}

// BroadcastChat sends the message to every registered connection regardless
// of role. Callers must have durably appended the message first.
func (r *Router) BroadcastChat(msg store.Message) {
	ev := &Event{Kind: EventChat, Message: msg}
	for _, c := range r.registry.Snapshot() {
		r.send(c, ev)
	}
}

// BroadcastPresenceSnapshot sends the full current record set to privileged
// connections only. Eager full refresh, no incremental diffs; acceptable
// because classifications and disconnects are rare next to chat traffic.
func (r *Router) BroadcastPresenceSnapshot(ctx context.Context) {
	clients := r.registry.Snapshot()

	privileged := clients[:0:0]
	for _, c := range clients {
		if c.Role == RolePrivileged {
			privileged = append(privileged, c)
		}
	}
	if len(privileged) == 0 {
		return
	}

	ev := &Event{Kind: EventPresenceSnapshot, Records: r.presence.Snapshot(ctx)}
	for _, c := range privileged {
		r.send(c, ev)
	}
}

func (r *Router) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	case <-c.Done():
		// Recipient already gone.
	default:
		r.log.Warn().Str("conn_id", c.ID).Msg("dropping event for slow consumer")
	}
}

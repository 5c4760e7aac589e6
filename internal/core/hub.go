package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/store"
)

// Hub is the per-process protocol handler. A single goroutine owns every
// registry mutation, so concurrent classifies and disconnects for the same
// connection or identity are serialized; fan-out reads immutable registry
// snapshots.
type Hub struct {
	archive  store.MessageStore // nil disables the transcript (tests)
	registry *Registry
	presence *Tracker
	router   *Router
	log      *zerolog.Logger
	now      func() time.Time

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	stopped    chan struct{}
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub constructs a hub over the archive and presence tracker.
func NewHub(archive store.MessageStore, presence *Tracker, logger *zerolog.Logger) *Hub {
	registry := NewRegistry()
	return &Hub{
		archive:    archive,
		registry:   registry,
		presence:   presence,
		router:     NewRouter(registry, presence, logger),
		log:        logger,
		now:        time.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		stopped:    make(chan struct{}),
	}
}

// Registry exposes the live connection set.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// RegisterClient adds a freshly accepted, unclassified connection. It reports
// false once the hub has stopped; the client is closed in that case.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		c.close()
		return false
	}
}

// UnregisterClient removes a connection. Safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-c.Done():
	case <-h.stopped:
	}
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			// Release any handler still blocked on unregister.
			for _, c := range h.registry.Snapshot() {
				c.close()
			}
			return
		case c := <-h.register:
			h.registry.Register(c)
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.handleDisconnect(ctx, c)
		case env := <-h.commands:
			h.handleCommand(ctx, env.client, env.cmd)
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			return
		case cmd := <-c.Commands:
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			case <-c.Done():
				return
			}
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.registry.Get(c.ID); !ok {
		// Command raced with a disconnect; connection is gone.
		return
	}

	switch cmd.Kind {
	case CommandClassifyParticipant:
		h.registry.Classify(c.ID, cmd.Identity, RoleParticipant)
		h.presence.Online(ctx, cmd.Identity, cmd.Location)
		h.log.Info().
			Str("conn_id", c.ID).
			Str("identity", cmd.Identity).
			Msg("connection classified as participant")
		h.router.BroadcastPresenceSnapshot(ctx)

	case CommandClassifyPrivileged:
		// Identity, if any, survives re-classification.
		h.registry.Classify(c.ID, "", RolePrivileged)
		h.log.Info().Str("conn_id", c.ID).Msg("connection classified as privileged")
		h.router.BroadcastPresenceSnapshot(ctx)

	case CommandChat:
		h.handleChat(ctx, c, cmd.Text)
	}
}

func (h *Hub) handleChat(ctx context.Context, c *Client, text string) {
	if c.Identity == "" {
		// Chat before classification carries no identity; drop it.
		h.log.Debug().Str("conn_id", c.ID).Msg("chat from unclassified connection dropped")
		return
	}

	msg := store.Message{
		Identity:  c.Identity,
		Text:      text,
		CreatedAt: h.now(),
	}

	// Durability precedes fan-out: nobody may observe a chat event that was
	// not appended. On failure only the sender hears about it.
	if h.archive != nil {
		if err := h.archive.AppendMessage(ctx, &msg); err != nil {
			h.log.Error().Err(err).Str("identity", c.Identity).Msg("archive append failed")
			h.router.send(c, &Event{
				Kind:  EventError,
				Error: coreError(ErrCodeNotDelivered, "message could not be stored"),
			})
			return
		}
	}

	h.router.BroadcastChat(msg)
}

func (h *Hub) handleDisconnect(ctx context.Context, c *Client) {
	if !h.registry.Unregister(c.ID) {
		return
	}
	c.close()

	if c.Identity != "" {
		if h.presence.Offline(ctx, c.Identity) {
			h.log.Info().
				Str("conn_id", c.ID).
				Str("identity", c.Identity).
				Msg("identity went offline")
		}
	}

	h.router.BroadcastPresenceSnapshot(ctx)
}

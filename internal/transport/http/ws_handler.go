package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/auth"
	"github.com/vantagechat/vantage-server/internal/config"
	"github.com/vantagechat/vantage-server/internal/core"
	"github.com/vantagechat/vantage-server/internal/geo"
	"github.com/vantagechat/vantage-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
// Classification frames are verified here, upstream of the hub: the hub only
// ever sees commands whose token already checked out.
type WSHandler struct {
	hub      *core.Hub
	auth     *auth.Service
	resolver geo.Resolver
	cfg      config.Config
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, resolver geo.Resolver, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		auth:     authService,
		resolver: resolver,
		cfg:      cfg,
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient()
	if !h.hub.RegisterClient(client) {
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	remoteIP := clientIP(r)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, remoteIP)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "error"
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, remoteIP string) error {
	limiter := newRateLimiter(h.cfg.ChatRateLimit)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			// Malformed input is dropped; the connection stays open.
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("unparseable frame dropped")
			continue
		}

		cmd := h.handleInbound(client, inbound, remoteIP, limiter)
		if cmd == nil {
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		case <-client.Done():
			return nil
		}
	}
}

// handleInbound classifies a frame, verifying tokens and resolving geography
// on the classify path. Returns the command to dispatch, or nil if the frame
// was dropped or answered with an error event.
func (h *WSHandler) handleInbound(client *core.Client, inbound proto.Inbound, remoteIP string, limiter *rateLimiter) *core.Command {
	switch inbound.Kind {
	case proto.KindClassifyParticipant:
		if inbound.Identity == "" {
			h.log.Debug().Str("conn_id", client.ID).Msg("classify without identity dropped")
			return nil
		}
		claims, err := h.auth.ValidateToken(inbound.Token)
		if err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("classify with invalid token")
			h.sendError(client, core.ErrCodeUnauthorized, "invalid session token")
			return nil
		}
		if claims.Username != inbound.Identity {
			// A valid token for one account must not classify as another.
			h.log.Warn().
				Str("conn_id", client.ID).
				Str("token_user", claims.Username).
				Str("claimed", inbound.Identity).
				Msg("classify identity differs from token subject")
			h.sendError(client, core.ErrCodeUnauthorized, "identity does not match session token")
			return nil
		}

		lookupCtx, cancel := context.WithTimeout(context.Background(), h.cfg.GeoLookupTimeout)
		defer cancel()
		loc := h.resolver.Lookup(lookupCtx, remoteIP)

		return &core.Command{
			Kind:     core.CommandClassifyParticipant,
			Identity: inbound.Identity,
			Location: loc,
		}

	case proto.KindClassifyPrivileged:
		claims, err := h.auth.ValidateToken(inbound.Token)
		if err != nil || !claims.Admin {
			h.log.Debug().Str("conn_id", client.ID).Msg("privileged classify rejected")
			h.sendError(client, core.ErrCodeUnauthorized, "privileged role requires an admin session")
			return nil
		}
		return &core.Command{Kind: core.CommandClassifyPrivileged}

	case proto.KindChat:
		if !limiter.allow() {
			h.sendError(client, core.ErrCodeRateLimited, "too many messages")
			return nil
		}
		return &core.Command{Kind: core.CommandChat, Text: inbound.Text}

	default:
		// Unknown message kinds are dropped silently.
		h.log.Debug().Str("conn_id", client.ID).Str("kind", inbound.Kind).Msg("unknown frame kind dropped")
		return nil
	}
}

// sendError routes a connection-scoped error through the write loop so the
// read loop never writes to the socket directly.
func (h *WSHandler) sendError(client *core.Client, code, msg string) {
	ev := &core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: code, Message: msg},
	}
	select {
	case client.Events <- ev:
	default:
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			frame := outboundFromEvent(event)
			if frame == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// clientIP extracts the peer address, preferring the first X-Forwarded-For
// entry the way the reverse proxy sets it.
func clientIP(r *stdhttp.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip := strings.TrimSpace(strings.Split(fwd, ",")[0])
		return strings.TrimPrefix(ip, "::ffff:")
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return strings.TrimPrefix(host, "::ffff:")
}

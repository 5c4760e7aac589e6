package http

import (
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagechat/vantage-server/internal/auth"
	"github.com/vantagechat/vantage-server/internal/config"
	"github.com/vantagechat/vantage-server/internal/core"
	"github.com/vantagechat/vantage-server/internal/geo"
	"github.com/vantagechat/vantage-server/internal/proto"
)

var testJWT = &auth.JWTConfig{
	Secret:   []byte("test-secret-change-me"),
	Issuer:   "test",
	Audience: "test",
	TTL:      time.Hour,
}

func newTestWSHandler(t *testing.T) *WSHandler {
	t.Helper()

	l := zerolog.Nop()
	cfg := config.Default()
	cfg.GeoLookupTimeout = time.Second

	// Token validation never touches the user store.
	authService := auth.NewService(nil, testJWT)
	return NewWSHandler(nil, authService, geo.StaticResolver{}, cfg, &l)
}

func mustToken(t *testing.T, username string, admin bool) string {
	t.Helper()

	token, err := auth.GenerateToken(testJWT, 1, username, admin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func drainError(t *testing.T, c *core.Client, code string) {
	t.Helper()

	select {
	case ev := <-c.Events:
		if ev.Kind != core.EventError || ev.Error == nil || ev.Error.Code != code {
			t.Fatalf("expected %s error event, got %+v", code, ev)
		}
	default:
		t.Fatalf("expected %s error event, got none", code)
	}
}

func TestHandleInboundClassifyParticipant(t *testing.T) {
	h := newTestWSHandler(t)
	client := core.NewClient()
	limiter := newRateLimiter(0)

	cmd := h.handleInbound(client, proto.Inbound{
		Kind:     proto.KindClassifyParticipant,
		Identity: "alice",
		Token:    mustToken(t, "alice", false),
	}, "127.0.0.1", limiter)

	if cmd == nil || cmd.Kind != core.CommandClassifyParticipant {
		t.Fatalf("expected classify command, got %+v", cmd)
	}
	if cmd.Identity != "alice" {
		t.Fatalf("unexpected identity %q", cmd.Identity)
	}
	if cmd.Location.City != "Local" {
		t.Fatalf("expected local geography for loopback, got %+v", cmd.Location)
	}
}

func TestHandleInboundClassifyWithBadToken(t *testing.T) {
	h := newTestWSHandler(t)
	client := core.NewClient()
	limiter := newRateLimiter(0)

	cmd := h.handleInbound(client, proto.Inbound{
		Kind:     proto.KindClassifyParticipant,
		Identity: "alice",
		Token:    "garbage",
	}, "127.0.0.1", limiter)

	if cmd != nil {
		t.Fatalf("expected no command, got %+v", cmd)
	}
	drainError(t, client, core.ErrCodeUnauthorized)
}

func TestHandleInboundClassifyIdentityMustMatchToken(t *testing.T) {
	h := newTestWSHandler(t)
	client := core.NewClient()
	limiter := newRateLimiter(0)

	cmd := h.handleInbound(client, proto.Inbound{
		Kind:     proto.KindClassifyParticipant,
		Identity: "bob",
		Token:    mustToken(t, "alice", false),
	}, "127.0.0.1", limiter)

	if cmd != nil {
		t.Fatalf("token for another account must not classify, got %+v", cmd)
	}
	drainError(t, client, core.ErrCodeUnauthorized)
}

func TestHandleInboundClassifyPrivilegedRequiresAdmin(t *testing.T) {
	h := newTestWSHandler(t)
	limiter := newRateLimiter(0)

	plain := core.NewClient()
	cmd := h.handleInbound(plain, proto.Inbound{
		Kind:  proto.KindClassifyPrivileged,
		Token: mustToken(t, "alice", false),
	}, "127.0.0.1", limiter)
	if cmd != nil {
		t.Fatalf("non-admin must not classify as privileged")
	}
	drainError(t, plain, core.ErrCodeUnauthorized)

	admin := core.NewClient()
	cmd = h.handleInbound(admin, proto.Inbound{
		Kind:  proto.KindClassifyPrivileged,
		Token: mustToken(t, "admin", true),
	}, "127.0.0.1", limiter)
	if cmd == nil || cmd.Kind != core.CommandClassifyPrivileged {
		t.Fatalf("expected privileged classify command, got %+v", cmd)
	}
}

func TestHandleInboundChatAndRateLimit(t *testing.T) {
	h := newTestWSHandler(t)
	client := core.NewClient()
	limiter := newRateLimiter(1)

	cmd := h.handleInbound(client, proto.Inbound{Kind: proto.KindChat, Text: "hi"}, "127.0.0.1", limiter)
	if cmd == nil || cmd.Kind != core.CommandChat || cmd.Text != "hi" {
		t.Fatalf("expected chat command, got %+v", cmd)
	}

	cmd = h.handleInbound(client, proto.Inbound{Kind: proto.KindChat, Text: "again"}, "127.0.0.1", limiter)
	if cmd != nil {
		t.Fatalf("expected rate-limited frame to be dropped")
	}
	drainError(t, client, core.ErrCodeRateLimited)
}

func TestHandleInboundDropsUnknownAndIncomplete(t *testing.T) {
	h := newTestWSHandler(t)
	client := core.NewClient()
	limiter := newRateLimiter(0)

	if cmd := h.handleInbound(client, proto.Inbound{Kind: "telemetry"}, "127.0.0.1", limiter); cmd != nil {
		t.Fatalf("unknown kind should be dropped")
	}
	if cmd := h.handleInbound(client, proto.Inbound{Kind: proto.KindClassifyParticipant}, "127.0.0.1", limiter); cmd != nil {
		t.Fatalf("classify without identity should be dropped")
	}

	select {
	case ev := <-client.Events:
		t.Fatalf("dropped frames must not produce events, got %+v", ev)
	default:
	}
}

func TestClientIP(t *testing.T) {
	r, _ := stdhttp.NewRequest(stdhttp.MethodGet, "/ws", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	if ip := clientIP(r); ip != "203.0.113.7" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "::ffff:198.51.100.2, 10.0.0.1")
	if ip := clientIP(r); ip != "198.51.100.2" {
		t.Fatalf("expected first forwarded address, got %q", ip)
	}
}

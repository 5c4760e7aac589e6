package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vantagechat/vantage-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	apiAddr := flag.String("api", "http://localhost:8080", "HTTP API base URL")
	wsAddr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to log in with")
	pass := flag.String("pass", "password123", "password")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := login(ctx, *apiAddr, *user, *pass)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, *wsAddr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	classify := proto.Inbound{Kind: proto.KindClassifyParticipant, Identity: *user, Token: token}
	if err := wsjson.Write(ctx, conn, classify); err != nil {
		return fmt.Errorf("send classify: %w", err)
	}

	chat := proto.Inbound{Kind: proto.KindChat, Text: *text}
	if err := wsjson.Write(ctx, conn, chat); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}

	for {
		var frame proto.ChatFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if frame.Kind != proto.KindChat {
			fmt.Printf("received frame: kind=%s\n", frame.Kind)
			continue
		}
		fmt.Printf("chat: identity=%s text=%q ts=%d\n", frame.Identity, frame.Text, frame.TS)
		if frame.Identity == *user && frame.Text == *text {
			return nil
		}
	}
}

// login registers the user first (ignoring "already exists") and returns a
// session token.
func login(ctx context.Context, base, user, pass string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": user, "password": pass})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	// Best-effort registration; a 409 just means the account exists.
	if resp, err := post(ctx, base+"/api/register", body); err == nil {
		resp.Body.Close()
	}

	resp, err := post(ctx, base+"/api/login", body)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}

	var auth struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return auth.Token, nil
}

func post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

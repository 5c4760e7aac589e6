package http

import (
	"testing"
	"time"

	"github.com/vantagechat/vantage-server/internal/core"
	"github.com/vantagechat/vantage-server/internal/proto"
	"github.com/vantagechat/vantage-server/internal/store"
)

func TestOutboundFromChatEvent(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	ev := &core.Event{
		Kind:    core.EventChat,
		Message: store.Message{ID: 7, Identity: "alice", Text: "hi", CreatedAt: ts},
	}

	frame, ok := outboundFromEvent(ev).(proto.ChatFrame)
	if !ok {
		t.Fatalf("expected ChatFrame, got %T", outboundFromEvent(ev))
	}
	if frame.Kind != proto.KindChat || frame.Identity != "alice" || frame.Text != "hi" || frame.TS != ts.Unix() {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

func TestOutboundFromSnapshotEvent(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	ev := &core.Event{
		Kind: core.EventPresenceSnapshot,
		Records: []*store.PresenceRecord{
			{
				Identity:   "bob",
				Status:     store.StatusOnline,
				LastActive: ts,
				IP:         "203.0.113.7",
				City:       "Lisbon",
				Region:     "Lisboa",
				Country:    "Portugal",
				Org:        "ExampleNet",
			},
		},
	}

	frame, ok := outboundFromEvent(ev).(proto.SnapshotFrame)
	if !ok {
		t.Fatalf("expected SnapshotFrame, got %T", outboundFromEvent(ev))
	}
	if frame.Kind != proto.KindPresenceSnapshot || len(frame.Records) != 1 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	rec := frame.Records[0]
	if rec.Identity != "bob" || rec.Status != "online" || rec.LastActive != ts.Unix() || rec.City != "Lisbon" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestOutboundFromSnapshotEventEmptyRecords(t *testing.T) {
	ev := &core.Event{Kind: core.EventPresenceSnapshot}

	frame, ok := outboundFromEvent(ev).(proto.SnapshotFrame)
	if !ok {
		t.Fatalf("expected SnapshotFrame")
	}
	if frame.Records == nil {
		t.Fatalf("records must marshal as an empty array, not null")
	}
}

func TestOutboundFromErrorEvent(t *testing.T) {
	ev := &core.Event{
		Kind:  core.EventError,
		Error: &core.CoreError{Code: core.ErrCodeNotDelivered, Message: "message could not be stored"},
	}

	frame, ok := outboundFromEvent(ev).(proto.ErrorFrame)
	if !ok {
		t.Fatalf("expected ErrorFrame")
	}
	if frame.Kind != proto.KindError || frame.Code != core.ErrCodeNotDelivered {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

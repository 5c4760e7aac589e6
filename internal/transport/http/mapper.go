package http

import (
	"github.com/vantagechat/vantage-server/internal/core"
	"github.com/vantagechat/vantage-server/internal/proto"
)

func outboundFromEvent(event *core.Event) any {
	switch event.Kind {
	case core.EventChat:
		return proto.ChatFrame{
			Kind:     proto.KindChat,
			Identity: event.Message.Identity,
			Text:     event.Message.Text,
			TS:       event.Message.CreatedAt.Unix(),
		}
	case core.EventPresenceSnapshot:
		records := make([]proto.PresenceEntry, 0, len(event.Records))
		for _, rec := range event.Records {
			records = append(records, proto.PresenceEntry{
				Identity:   rec.Identity,
				Status:     string(rec.Status),
				LastActive: rec.LastActive.Unix(),
				IP:         rec.IP,
				City:       rec.City,
				Region:     rec.Region,
				Country:    rec.Country,
				Org:        rec.Org,
			})
		}
		return proto.SnapshotFrame{
			Kind:    proto.KindPresenceSnapshot,
			Records: records,
		}
	case core.EventError:
		return proto.ErrorFrame{
			Kind: proto.KindError,
			Code: event.Error.Code,
			Msg:  event.Error.Message,
		}
	default:
		return nil
	}
}

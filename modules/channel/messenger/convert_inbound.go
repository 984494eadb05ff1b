package messenger

import (
	"errors"
	"time"

	"github.com/flemzord/newsclaw/pkg/message"
)

var errSkip = errors.New("messenger: event not handled")

// convertInbound maps one webhook event to an InboundEvent. Echoes of the
// page's own messages and unsupported event types yield errSkip.
func convertInbound(m Messaging, channelName string) (message.InboundEvent, error) {
	ev := message.InboundEvent{
		Channel:   channelName,
		SenderID:  m.Sender.ID,
		Timestamp: time.UnixMilli(m.Timestamp),
	}
	if ev.SenderID == "" {
		return ev, errSkip
	}

	switch {
	case m.Postback != nil:
		ev.Kind = message.EventPostback
		ev.Text = m.Postback.Title
		ev.Payload = m.Postback.Payload

	case m.Message != nil && m.Message.IsEcho:
		return ev, errSkip

	case m.Message != nil && m.Message.QuickReply != nil:
		ev.Kind = message.EventQuickReply
		ev.Text = m.Message.Text
		ev.Payload = m.Message.QuickReply.Payload

	case m.Message != nil && m.Message.Text != "":
		ev.Kind = message.EventText
		ev.Text = m.Message.Text

	default:
		return ev, errSkip
	}
	return ev, nil
}

package messenger

import (
	"errors"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/pkg/message"
)

func TestConvertInbound(t *testing.T) {
	t.Parallel()

	sender := Recipient{ID: "psid-1"}
	ts := int64(1589000000123)

	tests := []struct {
		name        string
		in          Messaging
		wantSkip    bool
		wantKind    message.EventKind
		wantText    string
		wantPayload string
	}{
		{
			name:     "text",
			in:       Messaging{Sender: sender, Timestamp: ts, Message: &InMessage{MID: "m1", Text: "Klimawandel"}},
			wantKind: message.EventText,
			wantText: "Klimawandel",
		},
		{
			name:        "postback",
			in:          Messaging{Sender: sender, Timestamp: ts, Postback: &Postback{Title: "Lesen 📰", Payload: `{"action":"report_start","report":7}`}},
			wantKind:    message.EventPostback,
			wantText:    "Lesen 📰",
			wantPayload: `{"action":"report_start","report":7}`,
		},
		{
			name:        "quick reply",
			in:          Messaging{Sender: sender, Timestamp: ts, Message: &InMessage{Text: "Weiter", QuickReply: &QuickReply{Payload: `{"action":"report_start","report":7,"fragment":1}`}}},
			wantKind:    message.EventQuickReply,
			wantText:    "Weiter",
			wantPayload: `{"action":"report_start","report":7,"fragment":1}`,
		},
		{
			name:     "echo",
			in:       Messaging{Sender: sender, Message: &InMessage{Text: "sent by page", IsEcho: true}},
			wantSkip: true,
		},
		{
			name:     "empty sender",
			in:       Messaging{Message: &InMessage{Text: "hi"}},
			wantSkip: true,
		},
		{
			name:     "attachment only",
			in:       Messaging{Sender: sender, Message: &InMessage{}},
			wantSkip: true,
		},
		{
			name:     "delivery receipt",
			in:       Messaging{Sender: sender},
			wantSkip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := convertInbound(tt.in, "channel.messenger")
			if tt.wantSkip {
				if !errors.Is(err, errSkip) {
					t.Fatalf("err = %v, want errSkip", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("convertInbound: %v", err)
			}
			if ev.Kind != tt.wantKind || ev.Text != tt.wantText || ev.Payload != tt.wantPayload {
				t.Errorf("event = %+v", ev)
			}
			if ev.Channel != "channel.messenger" || ev.SenderID != "psid-1" {
				t.Errorf("channel/sender = %q/%q", ev.Channel, ev.SenderID)
			}
			if !ev.Timestamp.Equal(time.UnixMilli(ts)) {
				t.Errorf("timestamp = %v", ev.Timestamp)
			}
		})
	}
}

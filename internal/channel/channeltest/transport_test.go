package channeltest

import (
	"context"
	"errors"
	"testing"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/pkg/message"
)

func TestChannel_ModuleInfo(t *testing.T) {
	t.Parallel()
	ch := NewChannel("messenger")
	info := ch.ModuleInfo()

	if string(info.ID) != "channel.messenger" {
		t.Errorf("ModuleID = %q, want %q", info.ID, "channel.messenger")
	}
	if info.New() == nil {
		t.Fatal("New() returned nil")
	}
}

func TestChannel_SimulateWithoutInbox(t *testing.T) {
	t.Parallel()
	ch := NewChannel("messenger")
	if err := ch.SimulateEvent(message.InboundEvent{}); !errors.Is(err, channel.ErrNoInbox) {
		t.Errorf("SimulateEvent = %v, want ErrNoInbox", err)
	}
}

func TestChannel_SimulateTagsChannel(t *testing.T) {
	t.Parallel()
	ch := NewChannel("messenger")

	var got message.InboundEvent
	ch.SetInbox(func(ev message.InboundEvent) error {
		got = ev
		return nil
	})
	if err := ch.SimulateEvent(message.InboundEvent{SenderID: "psid"}); err != nil {
		t.Fatalf("SimulateEvent: %v", err)
	}
	if got.Channel != "messenger" || got.SenderID != "psid" {
		t.Errorf("event = %+v", got)
	}
}

func TestTransport_RecordsAndFails(t *testing.T) {
	t.Parallel()
	tr := NewTransport()
	boom := errors.New("boom")
	tr.FailFunc = func(n int, _ Call) error {
		if n == 1 {
			return boom
		}
		return nil
	}

	env := channel.Envelope{Recipient: "psid"}
	r, err := tr.SendText(context.Background(), env, "hi", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if r.MessageID != "mid.1" || r.RecipientID != "psid" {
		t.Errorf("receipt = %+v", r)
	}
	if _, err := tr.SendText(context.Background(), env, "again", nil); !errors.Is(err, boom) {
		t.Errorf("second SendText = %v, want boom", err)
	}
	if len(tr.Calls()) != 1 {
		t.Errorf("calls = %d, want 1", len(tr.Calls()))
	}
}

package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/channel/channeltest"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/pkg/message"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mediaChannel adds attachment resolution to the recording channel.
type mediaChannel struct {
	*channeltest.Channel
	resolver *channeltest.Resolver
}

func (m *mediaChannel) Attachments() channel.AttachmentResolver { return m.resolver }

func newMediaChannel() *mediaChannel {
	return &mediaChannel{Channel: channeltest.NewChannel("messenger"), resolver: &channeltest.Resolver{}}
}

func newRegistry(t *testing.T, ch channel.Channel) *channel.Registry {
	t.Helper()
	reg := channel.NewRegistry()
	if err := reg.Register("messenger", ch); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func newResolver(stores kvstore.Collections) *session.Resolver {
	return &session.Resolver{
		Stores: stores,
		Now:    func() time.Time { return time.Unix(1_700_000_000, 0) },
		NewID:  func() string { return "identity-1" },
		Logger: testLogger(),
	}
}

// brokenUsers fails every identity lookup.
type brokenUsers struct{}

var errUsersDown = errors.New("users table unavailable")

func (brokenUsers) Load(context.Context, string) (kvstore.Record, error) { return nil, errUsersDown }
func (brokenUsers) Create(context.Context, string, kvstore.Record) error { return errUsersDown }
func (brokenUsers) Put(context.Context, string, kvstore.Record) error    { return errUsersDown }

func postback(sender, payload string) message.InboundEvent {
	return message.InboundEvent{
		Channel:   "messenger",
		SenderID:  sender,
		Timestamp: time.Unix(1_700_000_000, 0),
		Kind:      message.EventPostback,
		Payload:   payload,
	}
}

func textEvent(sender, text string) message.InboundEvent {
	return message.InboundEvent{
		Channel:   "messenger",
		SenderID:  sender,
		Timestamp: time.Unix(1_700_000_000, 0),
		Kind:      message.EventText,
		Text:      text,
	}
}

func envelopeFor(ev message.InboundEvent) envelope {
	return envelope{Event: ev, Key: LaneKeyFromEvent(ev)}
}

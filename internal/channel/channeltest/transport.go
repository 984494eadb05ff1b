// Package channeltest provides test doubles for the channel package.
package channeltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Call is one recorded transport call.
type Call struct {
	Kind         channel.StepKind
	Envelope     channel.Envelope
	Text         string
	Buttons      []message.Button
	Elements     []message.CarouselElement
	QuickReplies []message.QuickReply
	MediaType    message.AttachmentType
	AttachmentID string
	Started      time.Time
	Finished     time.Time
}

// Transport records every call. It implements channel.Transport and
// channel.Typer.
type Transport struct {
	mu     sync.Mutex
	calls  []Call
	typing []string

	// Delay, if set, is waited (or ctx.Done) inside every call.
	Delay time.Duration

	// FailFunc, if set, is consulted before recording; a non-nil error
	// fails the call without recording it.
	FailFunc func(n int, c Call) error
}

var (
	_ channel.Transport = (*Transport)(nil)
	_ channel.Typer     = (*Transport)(nil)
)

// NewTransport creates an empty recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) record(ctx context.Context, c Call) (channel.Receipt, error) {
	c.Started = time.Now()
	if t.Delay > 0 {
		select {
		case <-time.After(t.Delay):
		case <-ctx.Done():
			return channel.Receipt{}, ctx.Err()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FailFunc != nil {
		if err := t.FailFunc(len(t.calls), c); err != nil {
			return channel.Receipt{}, err
		}
	}
	c.Finished = time.Now()
	t.calls = append(t.calls, c)
	return channel.Receipt{
		RecipientID: c.Envelope.Recipient,
		MessageID:   fmt.Sprintf("mid.%d", len(t.calls)),
	}, nil
}

// SendText implements channel.Transport.
func (t *Transport) SendText(ctx context.Context, env channel.Envelope, text string, qr []message.QuickReply) (channel.Receipt, error) {
	return t.record(ctx, Call{Kind: channel.StepText, Envelope: env, Text: text, QuickReplies: qr})
}

// SendButtons implements channel.Transport.
func (t *Transport) SendButtons(ctx context.Context, env channel.Envelope, text string, buttons []message.Button, qr []message.QuickReply) (channel.Receipt, error) {
	return t.record(ctx, Call{Kind: channel.StepButtons, Envelope: env, Text: text, Buttons: buttons, QuickReplies: qr})
}

// SendAttachment implements channel.Transport.
func (t *Transport) SendAttachment(ctx context.Context, env channel.Envelope, typ message.AttachmentType, id string) (channel.Receipt, error) {
	return t.record(ctx, Call{Kind: channel.StepAttachment, Envelope: env, MediaType: typ, AttachmentID: id})
}

// SendCarousel implements channel.Transport.
func (t *Transport) SendCarousel(ctx context.Context, env channel.Envelope, elements []message.CarouselElement, qr []message.QuickReply) (channel.Receipt, error) {
	return t.record(ctx, Call{Kind: channel.StepCarousel, Envelope: env, Elements: elements, QuickReplies: qr})
}

// SendTyping implements channel.Typer.
func (t *Transport) SendTyping(_ context.Context, recipient string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.typing = append(t.typing, recipient)
	return nil
}

// Calls returns a copy of the recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := make([]Call, len(t.calls))
	copy(cp, t.calls)
	return cp
}

// Typing returns the recipients typing indicators were sent to.
func (t *Transport) Typing() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.typing...)
}

// Reset clears recorded calls.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
	t.typing = nil
}

// Resolver is an AttachmentResolver returning "att:<url>" ids.
type Resolver struct {
	mu    sync.Mutex
	calls int

	// Err, if set, fails every resolution.
	Err error
}

var _ channel.AttachmentResolver = (*Resolver)(nil)

// Resolve implements channel.AttachmentResolver.
func (r *Resolver) Resolve(_ context.Context, url string, typ message.AttachmentType) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.Err != nil {
		return "", r.Err
	}
	return "att:" + string(typ) + ":" + url, nil
}

// Calls returns the number of Resolve calls.
func (r *Resolver) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Channel is a recording channel.Channel with a simulated inbox.
type Channel struct {
	*Transport

	name  string
	mu    sync.Mutex
	inbox func(ev message.InboundEvent) error
}

var _ channel.Channel = (*Channel)(nil)

// NewChannel creates a Channel with the given name.
func NewChannel(name string) *Channel {
	return &Channel{Transport: NewTransport(), name: name}
}

// ModuleInfo implements core.Module.
func (c *Channel) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  core.ModuleID("channel." + c.name),
		New: func() core.Module { return NewChannel(c.name) },
	}
}

// SetInbox implements channel.Channel.
func (c *Channel) SetInbox(fn func(ev message.InboundEvent) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inbox = fn
}

// SimulateEvent pushes ev into the inbox, tagged with the channel name.
func (c *Channel) SimulateEvent(ev message.InboundEvent) error {
	c.mu.Lock()
	inbox := c.inbox
	c.mu.Unlock()

	if inbox == nil {
		return channel.ErrNoInbox
	}
	ev.Channel = c.name
	return inbox(ev)
}

package router

import (
	"context"
	"sync"

	"github.com/flemzord/newsclaw/pkg/message"
)

// LaneKey identifies one conversation: a sender on a channel.
type LaneKey struct {
	Channel  string
	SenderID string
}

// LaneKeyFromEvent derives the lane an event is serialized on.
func LaneKeyFromEvent(ev message.InboundEvent) LaneKey {
	return LaneKey{Channel: ev.Channel, SenderID: ev.SenderID}
}

// LaneLock serializes events per sender so replies to one person never
// interleave, while different senders proceed in parallel. A lane is a
// one-slot token channel; it lives in the map only while someone holds
// or waits for it.
type LaneLock struct {
	mu    sync.Mutex
	lanes map[LaneKey]*lane
}

type lane struct {
	token   chan struct{}
	waiters int
}

// NewLaneLock returns an empty LaneLock.
func NewLaneLock() *LaneLock {
	return &LaneLock{lanes: make(map[LaneKey]*lane)}
}

// Acquire waits for the lane of key. It gives up with ctx.Err() when ctx
// ends first; only a nil return must be paired with Release.
func (l *LaneLock) Acquire(ctx context.Context, key LaneKey) error {
	l.mu.Lock()
	ln := l.lanes[key]
	if ln == nil {
		ln = &lane{token: make(chan struct{}, 1)}
		l.lanes[key] = ln
	}
	ln.waiters++
	l.mu.Unlock()

	select {
	case ln.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.leave(key, ln)
		return ctx.Err()
	}
}

// Release frees the lane of key.
func (l *LaneLock) Release(key LaneKey) {
	l.mu.Lock()
	ln := l.lanes[key]
	l.mu.Unlock()
	if ln == nil {
		return
	}
	<-ln.token
	l.leave(key, ln)
}

func (l *LaneLock) leave(key LaneKey, ln *lane) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ln.waiters--
	if ln.waiters == 0 {
		delete(l.lanes, key)
	}
}

// Len returns the number of lanes held or waited on.
func (l *LaneLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

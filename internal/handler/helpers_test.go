package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/session"
	"github.com/flemzord/newsclaw/internal/tracking"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo serves canned content and records report queries.
type fakeRepo struct {
	tags    map[string][]content.Entity
	genres  map[string][]content.Entity
	reports []content.Report
	byID    map[int64]content.Report
	pushes  map[int64]content.Push

	lookupErr  error
	reportsErr error

	mu      sync.Mutex
	queries []content.Query
}

func (f *fakeRepo) Tags(_ context.Context, name string) ([]content.Entity, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.tags[name], nil
}

func (f *fakeRepo) Genres(_ context.Context, name string) ([]content.Entity, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.genres[name], nil
}

func (f *fakeRepo) Reports(_ context.Context, q content.Query) ([]content.Report, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.reportsErr != nil {
		return nil, f.reportsErr
	}
	return f.reports, nil
}

func (f *fakeRepo) Report(_ context.Context, id int64) (content.Report, error) {
	r, ok := f.byID[id]
	if !ok {
		return content.Report{}, content.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) Push(_ context.Context, id int64) (content.Push, error) {
	p, ok := f.pushes[id]
	if !ok {
		return content.Push{}, content.ErrNotFound
	}
	return p, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []tracking.Event
}

func (r *recordingTracker) Track(_ context.Context, ev tracking.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingTracker) Events() []tracking.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tracking.Event(nil), r.events...)
}

// testSession resolves a state for "psid-1" from memory stores. With
// tracked set, the session has consented and events land in the returned
// tracker.
func testSession(t *testing.T, tracked bool) (session.State, kvstore.Collections, *recordingTracker) {
	t.Helper()

	stores := kvstore.OpenCollections(kvstore.NewMemory())
	ctx := context.Background()
	if tracked {
		if err := stores.Tracking.Put(ctx, "psid-1", kvstore.Record{session.FieldTrackingEnabled: true}); err != nil {
			t.Fatalf("seed tracking: %v", err)
		}
	}

	rec := &recordingTracker{}
	r := &session.Resolver{
		Stores:   stores,
		Trackers: func(string) tracking.Tracker { return rec },
		Now:      func() time.Time { return time.Unix(1_700_000_000, 0) },
		NewID:    func() string { return "identity-1" },
		Logger:   testLogger(),
	}
	st, err := r.Resolve(ctx, "psid-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return st, stores, rec
}

func mustPayload(t *testing.T, action string, params any) Payload {
	t.Helper()
	p, err := NewPayload(action, params)
	if err != nil {
		t.Fatalf("NewPayload(%s): %v", action, err)
	}
	return p
}

// Package session resolves the per-event session state from the
// subscriptions, userstates, users and tracking collections.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/tracking"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/flemzord/newsclaw/internal/session")

// Resolver builds State values. The zero value is not usable: Stores must
// be set.
type Resolver struct {
	Stores kvstore.Collections

	// Trackers builds the tracker for consenting sessions. When nil,
	// consenting sessions still get tracking.Nop.
	Trackers tracking.Factory

	// Now defaults to time.Now.
	Now func() time.Time

	// NewID defaults to uuid.NewString.
	NewID func() string

	Logger *slog.Logger
}

// Resolve runs the four lookups concurrently. Subscription, mode and
// tracking lookups degrade to their defaults on failure; only an identity
// failure is returned, as an *IdentityError.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) (State, error) {
	ctx, span := tracer.Start(ctx, "session.Resolve")
	defer span.End()

	now := r.now()
	st := State{sessionID: sessionID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st.subscriptions = r.subscriptions(gctx, sessionID)
		return nil
	})
	g.Go(func() error {
		st.modes = r.modes(gctx, sessionID, now)
		return nil
	})
	g.Go(func() error {
		st.tracking = r.consent(gctx, sessionID)
		return nil
	})
	g.Go(func() error {
		id, err := r.identity(gctx, sessionID)
		st.identity = id
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity unavailable")
		return State{}, err
	}

	st.tracker = tracking.Nop{}
	if st.tracking && r.Trackers != nil {
		st.tracker = tracking.Instrumented(r.Trackers(st.identity))
	}

	span.SetAttributes(
		attribute.Bool("session.subscribed", st.Subscribed()),
		attribute.Bool("session.tracking", st.tracking),
	)
	return st, nil
}

func (r *Resolver) subscriptions(ctx context.Context, sessionID string) map[string]bool {
	flags := make(map[string]bool)
	rec, err := r.Stores.Subscriptions.Load(ctx, sessionID)
	if err != nil {
		r.degraded(kvstore.CollectionSubscriptions, sessionID, err)
		return flags
	}
	for _, name := range Subscriptions {
		if rec.Bool(name) {
			flags[name] = true
		}
	}
	return flags
}

func (r *Resolver) modes(ctx context.Context, sessionID string, now time.Time) map[Mode]bool {
	modes := make(map[Mode]bool, len(modeWindows))
	rec, err := r.Stores.UserStates.Load(ctx, sessionID)
	if err != nil {
		r.degraded(kvstore.CollectionUserStates, sessionID, err)
		return modes
	}
	for _, mw := range modeWindows {
		ts, ok := rec.Int64(mw.field)
		if !ok {
			continue
		}
		if now.Sub(time.Unix(ts, 0)) < mw.window {
			modes[mw.mode] = true
		}
	}
	return modes
}

func (r *Resolver) consent(ctx context.Context, sessionID string) bool {
	rec, err := r.Stores.Tracking.Load(ctx, sessionID)
	if err != nil {
		r.degraded(kvstore.CollectionTracking, sessionID, err)
		return false
	}
	return rec.Bool(FieldTrackingEnabled)
}

// identity loads the durable identifier, creating it on first contact.
// A lost creation race re-loads the winner's record.
func (r *Resolver) identity(ctx context.Context, sessionID string) (string, error) {
	users := r.Stores.Users

	rec, err := users.Load(ctx, sessionID)
	switch {
	case err == nil:
		return identityFrom(sessionID, "load", rec)
	case !errors.Is(err, kvstore.ErrNotFound):
		return "", &IdentityError{SessionID: sessionID, Op: "load", Err: err}
	}

	id := r.newID()
	err = users.Create(ctx, sessionID, kvstore.Record{FieldIdentity: id})
	switch {
	case err == nil:
		r.logger().Debug("identity created", "session", sessionID)
		return id, nil
	case !errors.Is(err, kvstore.ErrExists):
		return "", &IdentityError{SessionID: sessionID, Op: "create", Err: err}
	}

	rec, err = users.Load(ctx, sessionID)
	if err != nil {
		return "", &IdentityError{SessionID: sessionID, Op: "reload", Err: err}
	}
	return identityFrom(sessionID, "reload", rec)
}

func identityFrom(sessionID, op string, rec kvstore.Record) (string, error) {
	id := rec.String(FieldIdentity)
	if id == "" {
		return "", &IdentityError{SessionID: sessionID, Op: op, Err: errors.New("record has no " + FieldIdentity)}
	}
	return id, nil
}

func (r *Resolver) degraded(collection, sessionID string, err error) {
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	r.logger().Warn("session lookup degraded to default",
		"collection", collection,
		"session", sessionID,
		"error", err,
	)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Package tracking defines the analytics sink a session reports user
// interactions to. A sink is bound to one durable identity when the
// session is resolved; sessions without tracking consent get Nop.
package tracking

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event is one analytics event.
type Event struct {
	Category string
	Action   string
	Label    string
}

// Tracker records events for a single identity.
type Tracker interface {
	Track(ctx context.Context, ev Event) error
}

// Factory builds the Tracker bound to a durable identity.
type Factory func(identity string) Tracker

// Nop discards every event.
type Nop struct{}

// Track implements Tracker.
func (Nop) Track(context.Context, Event) error { return nil }

// Outcome label values for the events counter.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// EventsTotal counts events handed to a real tracker.
var EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "newsclaw",
	Name:      "tracking_events_total",
	Help:      "Analytics events submitted, by category and outcome.",
}, []string{"category", "outcome"})

// Instrumented wraps t so every call is counted in EventsTotal.
func Instrumented(t Tracker) Tracker {
	if _, ok := t.(Nop); ok {
		return t
	}
	return instrumented{next: t}
}

type instrumented struct {
	next Tracker
}

func (i instrumented) Track(ctx context.Context, ev Event) error {
	err := i.next.Track(ctx, ev)
	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	EventsTotal.WithLabelValues(ev.Category, outcome).Inc()
	return err
}

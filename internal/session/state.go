package session

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/flemzord/newsclaw/internal/tracking"
)

// Mode is a time-boxed behavioral flag.
type Mode string

// Transient modes.
const (
	ModeSurvey   Mode = "survey"
	ModeFeedback Mode = "feedback"
)

// Mode windows. A mode is active while now - activation < window.
const (
	SurveyWindow   = 7 * 24 * time.Hour
	FeedbackWindow = time.Hour
)

// Stored record fields.
const (
	FieldSurveyTime      = "surveyTime"
	FieldFeedbackTime    = "feedbackTime"
	FieldIdentity        = "uuid"
	FieldTrackingEnabled = "enabled"
)

// Subscription names read from the subscriptions collection.
var Subscriptions = []string{"morning", "evening", "breaking"}

type modeWindow struct {
	mode   Mode
	field  string
	window time.Duration
}

var modeWindows = []modeWindow{
	{ModeSurvey, FieldSurveyTime, SurveyWindow},
	{ModeFeedback, FieldFeedbackTime, FeedbackWindow},
}

// ModeField returns the userstates field holding m's activation time.
func ModeField(m Mode) (string, bool) {
	for _, s := range modeWindows {
		if s.mode == m {
			return s.field, true
		}
	}
	return "", false
}

// State is the resolved, read-only view of one session. It is built once
// per inbound event and never mutated afterwards.
type State struct {
	sessionID     string
	identity      string
	subscriptions map[string]bool
	modes         map[Mode]bool
	tracking      bool
	tracker       tracking.Tracker
}

// SessionID returns the platform-assigned recipient id.
func (s State) SessionID() string { return s.sessionID }

// Identity returns the durable identifier.
func (s State) Identity() string { return s.identity }

// Subscribed reports whether any subscription flag is set.
func (s State) Subscribed() bool {
	for _, on := range s.subscriptions {
		if on {
			return true
		}
	}
	return false
}

// Subscription reports a single subscription flag.
func (s State) Subscription(name string) bool { return s.subscriptions[name] }

// SubscriptionFlags returns a copy of the subscription flags.
func (s State) SubscriptionFlags() map[string]bool { return maps.Clone(s.subscriptions) }

// Active reports whether transient mode m is active.
func (s State) Active(m Mode) bool { return s.modes[m] }

// TrackingEnabled reports tracking consent.
func (s State) TrackingEnabled() bool { return s.tracking }

// Tracker returns the tracker bound to the identity, or tracking.Nop when
// tracking is disabled.
func (s State) Tracker() tracking.Tracker {
	if s.tracker == nil {
		return tracking.Nop{}
	}
	return s.tracker
}

// Track reports ev through the session's tracker.
func (s State) Track(ctx context.Context, ev tracking.Event) error {
	return s.Tracker().Track(ctx, ev)
}

// LogValue implements slog.LogValuer.
func (s State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("session", s.sessionID),
		slog.String("identity", s.identity),
		slog.Bool("subscribed", s.Subscribed()),
		slog.Bool("survey", s.Active(ModeSurvey)),
		slog.Bool("feedback", s.Active(ModeFeedback)),
		slog.Bool("tracking", s.tracking),
	)
}

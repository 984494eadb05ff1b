package handler

import (
	"log/slog"

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/kvstore"
	"github.com/flemzord/newsclaw/internal/session"
)

// Deps are the collaborators the standard handlers need.
type Deps struct {
	Content content.Repository
	Stores  kvstore.Collections
	Logger  *slog.Logger
}

// NewStandardMux registers every action handler on a new Mux.
func NewStandardMux(d Deps) (*Mux, error) {
	news, err := NewNews(d.Content, d.Logger)
	if err != nil {
		return nil, err
	}
	feedback, err := NewModeStart(d.Stores.UserStates, session.ModeFeedback, TextFeedbackStart)
	if err != nil {
		return nil, err
	}
	survey, err := NewModeStart(d.Stores.UserStates, session.ModeSurvey, TextSurveyStart)
	if err != nil {
		return nil, err
	}

	m := NewMux()
	m.Register(ActionNewsAbout, news)
	m.Register(ActionReportStart, NewReportStart(d.Content, d.Logger))
	m.Register(ActionReportAudio, NewReportAudio(d.Logger))
	m.Register(ActionPushOutro, NewPushOutro(d.Content))
	m.Register(ActionSubscribe, NewSubscribe(d.Stores.Subscriptions))
	m.Register(ActionUnsubscribe, NewUnsubscribe(d.Stores.Subscriptions))
	m.Register(ActionFeedbackStart, feedback)
	m.Register(ActionSurveyStart, survey)
	return m, nil
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // Europe/Berlin must resolve without a system zoneinfo

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/tracking"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Tracking category and actions for report interactions.
const (
	CategoryReport = "chat-report"
	actionTags     = "tags"
	actionGenres   = "genres"
)

// dateLayout is DD.MM.YYYY.
const dateLayout = "02.01.2006"

// Parameter is a classifier parameter value.
type Parameter struct {
	StringValue string `json:"stringValue"`
}

// NewsAboutPayload carries the classifier's tag and genre names.
type NewsAboutPayload struct {
	Action string    `json:"action"`
	Tags   Parameter `json:"tags"`
	Genres Parameter `json:"genres"`
}

// ReportAudioPayload is the postback of the "listen" button.
type ReportAudioPayload struct {
	Action   string `json:"action"`
	AudioURL string `json:"audioUrl"`
	Category string `json:"category,omitempty"`
	Event    string `json:"event,omitempty"`
	Label    string `json:"label,omitempty"`
}

// ReportStartPayload is the postback of the "read" button.
type ReportStartPayload struct {
	Action   string `json:"action"`
	Report   int64  `json:"report"`
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
	Event    string `json:"event,omitempty"`
	Label    string `json:"label,omitempty"`
}

// News answers "news about <topic>" with a carousel of matching reports.
type News struct {
	repo     content.Repository
	location *time.Location
	logger   *slog.Logger
}

// NewNews creates the news search handler. Dates are rendered in
// Europe/Berlin.
func NewNews(repo content.Repository, logger *slog.Logger) (*News, error) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return nil, fmt.Errorf("handler: load location: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &News{repo: repo, location: loc, logger: logger}, nil
}

// Handle implements Handler.
func (h *News) Handle(ctx context.Context, req Request) (Reply, error) {
	var p NewsAboutPayload
	if err := req.Payload.Decode(&p); err != nil {
		return Reply{}, err
	}

	query, ok := h.resolve(ctx, p)
	if !ok {
		return TextReply(TextNothingFound), nil
	}

	reports, err := h.repo.Reports(ctx, query)
	if err != nil {
		return Reply{}, fmt.Errorf("handler: news reports: %w", err)
	}
	if len(reports) == 0 {
		return TextReply(TextNothingFound), nil
	}

	elements := make([]message.CarouselElement, 0, len(reports))
	for _, r := range reports {
		elements = append(elements, h.element(r))
	}

	if req.State.TrackingEnabled() {
		h.track(ctx, req, actionTags, p.Tags.StringValue)
		h.track(ctx, req, actionGenres, p.Genres.StringValue)
	}

	return CarouselReply(message.TruncateCarousel(elements, message.MaxCarouselElements)), nil
}

// resolve maps the genre name, then the tag name, to the first matching
// id. A lookup error counts as no match.
func (h *News) resolve(ctx context.Context, p NewsAboutPayload) (content.Query, bool) {
	lookups := []struct {
		name   string
		value  string
		lookup func(context.Context, string) ([]content.Entity, error)
		query  func(id int64) content.Query
	}{
		{actionGenres, p.Genres.StringValue, h.repo.Genres, func(id int64) content.Query { return content.Query{Genre: id} }},
		{actionTags, p.Tags.StringValue, h.repo.Tags, func(id int64) content.Query { return content.Query{Tag: id} }},
	}

	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		found, err := l.lookup(ctx, l.value)
		if err != nil {
			if !errors.Is(err, content.ErrNotFound) {
				h.logger.Warn("news: lookup failed", "kind", l.name, "name", l.value, "error", err)
			}
			continue
		}
		if len(found) == 0 {
			continue
		}
		q := l.query(found[0].ID)
		q.Limit = content.DefaultReportLimit
		return q, true
	}
	return content.Query{}, false
}

func (h *News) element(r content.Report) message.CarouselElement {
	event := "report-" + r.Headline

	var buttons []message.Button
	if r.Audio != "" {
		buttons = append(buttons, message.NewPostback(labelListen, ReportAudioPayload{
			Action:   ActionReportAudio,
			AudioURL: r.Audio,
			Category: CategoryReport,
			Event:    event,
			Label:    "audio",
		}))
	}
	buttons = append(buttons, message.NewPostback(labelRead, ReportStartPayload{
		Action:   ActionReportStart,
		Report:   r.ID,
		Type:     "report",
		Category: CategoryReport,
		Event:    event,
		Label:    "intro",
	}))

	title := r.Created.In(h.location).Format(dateLayout) + " - " + r.Headline
	return message.NewCarouselElement(title, r.Text, "", buttons...)
}

func (h *News) track(ctx context.Context, req Request, action, label string) {
	if label == "" {
		return
	}
	ev := tracking.Event{Category: CategoryReport, Action: action, Label: label}
	if err := req.State.Track(ctx, ev); err != nil {
		h.logger.Warn("news: tracking failed", "action", action, "error", err)
	}
}

// Package content reads news reports, tags, genres and pushes from the
// editorial content API.
package content

import (
	"context"
	"time"

	"github.com/flemzord/newsclaw/pkg/message"
)

// DefaultReportLimit is the number of reports requested per search.
const DefaultReportLimit = message.MaxCarouselElements

// Entity is a tag or genre.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Fragment is one continuation of a report or push.
type Fragment struct {
	Text  string `json:"text"`
	Media string `json:"media,omitempty"`
}

// Report is a news report with its continuation fragments.
type Report struct {
	ID            int64      `json:"id"`
	Headline      string     `json:"headline"`
	Created       time.Time  `json:"created"`
	Text          string     `json:"text"`
	Media         string     `json:"media,omitempty"`
	Audio         string     `json:"audio,omitempty"`
	NextFragments []Fragment `json:"next_fragments,omitempty"`
}

// Content returns the report as deliverable fragments: the report body
// first, then its continuations. Media types are inferred at dispatch.
func (r Report) Content() message.Content {
	return toContent(Fragment{Text: r.Text, Media: r.Media}, r.NextFragments)
}

// Push is a broadcast news push. Outro is sent after the optional media.
type Push struct {
	ID            int64      `json:"id"`
	Headline      string     `json:"headline"`
	Text          string     `json:"text"`
	Media         string     `json:"media,omitempty"`
	Outro         string     `json:"outro"`
	NextFragments []Fragment `json:"next_fragments,omitempty"`
}

// Query selects reports by tag or genre. Exactly one of Tag and Genre is
// set; Genre wins when both are.
type Query struct {
	Tag   int64
	Genre int64
	Limit int
}

// Repository is the read side of the content API.
type Repository interface {
	Tags(ctx context.Context, name string) ([]Entity, error)
	Genres(ctx context.Context, name string) ([]Entity, error)
	Reports(ctx context.Context, q Query) ([]Report, error)
	Report(ctx context.Context, id int64) (Report, error)
	Push(ctx context.Context, id int64) (Push, error)
}

func toContent(first Fragment, next []Fragment) message.Content {
	c := make(message.Content, 0, 1+len(next))
	for _, f := range append([]Fragment{first}, next...) {
		frag := message.Fragment{Text: f.Text}
		if f.Media != "" {
			frag.Attachment = &message.Attachment{URL: f.Media}
		}
		c = append(c, frag)
	}
	return c
}

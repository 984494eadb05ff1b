package webtrekk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flemzord/newsclaw/internal/tracking"
)

// pixelVersion is the request version prefix of the p parameter.
const pixelVersion = "441"

// Tracker sends events for one identity as pixel requests.
type Tracker struct {
	endpoint string
	identity string
	http     *http.Client
	now      func() time.Time
}

var _ tracking.Tracker = (*Tracker)(nil)

// NewTracker creates a tracker for identity. endpoint is the collector
// URL including the track id, e.g. https://collector/123456789.
func NewTracker(endpoint, identity string, client *http.Client) *Tracker {
	return &Tracker{
		endpoint: strings.TrimRight(endpoint, "/"),
		identity: identity,
		http:     client,
		now:      time.Now,
	}
}

// Track implements tracking.Tracker.
func (t *Tracker) Track(ctx context.Context, ev tracking.Event) error {
	page := ev.Category
	if ev.Action != "" {
		page += "." + ev.Action
	}

	q := url.Values{}
	q.Set("p", strings.Join([]string{pixelVersion, page, "0", "0", "0", "0", strconv.FormatInt(t.now().UnixMilli(), 10)}, ","))
	q.Set("eid", t.identity)
	q.Set("ck1", ev.Category)
	q.Set("ck2", ev.Action)
	q.Set("ck3", ev.Label)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"/wt?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("webtrekk: create request: %w", err)
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("webtrekk: send %s: %w", page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webtrekk: send %s: status %d", page, resp.StatusCode)
	}
	return nil
}

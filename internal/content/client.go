package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20 // 4 MiB

// Client is an HTTP implementation of Repository.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Repository = (*Client)(nil)

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// get fetches path with query and decodes the JSON body into T.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, fmt.Errorf("content: create request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("content: GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return out, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode >= http.StatusBadRequest:
		return out, &StatusError{Path: path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return out, fmt.Errorf("content: decode %s: %w", path, err)
	}
	return out, nil
}

// Tags looks up tags by name.
func (c *Client) Tags(ctx context.Context, name string) ([]Entity, error) {
	return get[[]Entity](ctx, c, "/tags", url.Values{"name": {name}})
}

// Genres looks up genres by name.
func (c *Client) Genres(ctx context.Context, name string) ([]Entity, error) {
	return get[[]Entity](ctx, c, "/genres", url.Values{"name": {name}})
}

// Reports lists reports for a tag or genre, fragments included.
func (c *Client) Reports(ctx context.Context, q Query) ([]Report, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultReportLimit
	}
	params := url.Values{
		"withFragments": {"1"},
		"limit":         {strconv.Itoa(q.Limit)},
	}
	switch {
	case q.Genre != 0:
		params.Set("genres", strconv.FormatInt(q.Genre, 10))
	case q.Tag != 0:
		params.Set("tags", strconv.FormatInt(q.Tag, 10))
	default:
		return nil, ErrInvalidQuery
	}
	return get[[]Report](ctx, c, "/reports", params)
}

// Report fetches one report.
func (c *Client) Report(ctx context.Context, id int64) (Report, error) {
	return get[Report](ctx, c, "/reports/"+strconv.FormatInt(id, 10), nil)
}

// Push fetches one push.
func (c *Client) Push(ctx context.Context, id int64) (Push, error) {
	return get[Push](ctx, c, "/pushes/"+strconv.FormatInt(id, 10), nil)
}

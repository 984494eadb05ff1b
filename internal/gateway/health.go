package gateway

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is implemented by services registered as "<name>.health".
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckResult is one entry of the /health response.
type CheckResult struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string        `json:"status"` // "ok" or "degraded"
	Uptime   int64         `json:"uptime_seconds"`
	Webhooks []string      `json:"webhooks"`
	Checks   []CheckResult `json:"checks,omitempty"`
}

// handleHealth runs every check concurrently, each under HealthTimeout,
// and answers 503 when any of them fails.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if !g.startedAt.IsZero() {
			resp.Uptime = int64(time.Since(g.startedAt).Seconds())
		}
		if g.dispatcher != nil {
			resp.Webhooks = g.dispatcher.Sources()
		}

		names := slices.Sorted(maps.Keys(g.checks))
		resp.Checks = make([]CheckResult, len(names))

		var eg errgroup.Group
		for i, name := range names {
			eg.Go(func() error {
				ctx, cancel := context.WithTimeout(r.Context(), g.config.HealthTimeout)
				defer cancel()
				res := CheckResult{Name: name, OK: true}
				if err := g.checks[name].HealthCheck(ctx); err != nil {
					res.OK, res.Error = false, err.Error()
				}
				resp.Checks[i] = res
				return nil
			})
		}
		_ = eg.Wait()

		status := http.StatusOK
		if slices.ContainsFunc(resp.Checks, func(c CheckResult) bool { return !c.OK }) {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		if len(resp.Checks) == 0 {
			resp.Checks = nil
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

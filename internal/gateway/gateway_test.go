package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/security"
	"gopkg.in/yaml.v3"
)

func TestGateway_ProvisionDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want Config
	}{
		{
			name: "empty section",
			yaml: "{}",
			want: Config{
				Bind:            defaultBind,
				ReadTimeout:     defaultReadTimeout,
				WriteTimeout:    defaultWriteTimeout,
				ShutdownTimeout: defaultShutdownTimeout,
				HealthTimeout:   defaultHealthTimeout,
			},
		},
		{
			name: "explicit values kept",
			yaml: `
bind: "0.0.0.0:9090"
read_timeout: 5s
write_timeout: 15s
auth:
  bearer_token: scrape-me
webhook:
  max_bytes: 4096
`,
			want: Config{
				Bind:            "0.0.0.0:9090",
				Auth:            AuthConfig{BearerToken: "scrape-me"},
				ReadTimeout:     5 * time.Second,
				WriteTimeout:    15 * time.Second,
				ShutdownTimeout: defaultShutdownTimeout,
				HealthTimeout:   defaultHealthTimeout,
				Webhook:         security.BodyLimits{MaxBytes: 4096},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := &Gateway{}
			if err := g.Configure(mustYAMLNode(t, tt.yaml)); err != nil {
				t.Fatalf("Configure: %v", err)
			}
			if err := g.Provision(core.NewAppContext(testLogger(), t.TempDir())); err != nil {
				t.Fatalf("Provision: %v", err)
			}
			if g.config != tt.want {
				t.Errorf("config = %+v, want %+v", g.config, tt.want)
			}
		})
	}
}

func TestGateway_ProvisionPublishesDispatcher(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	appCtx := core.NewAppContext(testLogger(), t.TempDir())
	if err := g.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	d, err := core.ServiceAs[*WebhookDispatcher](appCtx, "gateway.webhook_dispatcher")
	if err != nil {
		t.Fatalf("dispatcher service: %v", err)
	}
	if d != g.dispatcher {
		t.Error("published dispatcher is not the gateway's own")
	}
}

func TestGateway_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Bind: "127.0.0.1:8080"}},
		{name: "port zero", cfg: Config{Bind: ":0"}},
		{name: "no port", cfg: Config{Bind: "localhost"}, wantErr: "bind"},
		{name: "basic user alone", cfg: Config{Bind: ":8080", Auth: AuthConfig{BasicUser: "ops"}}, wantErr: "basic_pass"},
		{name: "negative limit", cfg: Config{Bind: ":8080", Webhook: security.BodyLimits{MaxBytes: -1}}, wantErr: "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := (&Gateway{config: tt.cfg}).Validate()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Validate: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

type fakeCheck struct {
	err   error
	delay time.Duration
}

func (f fakeCheck) HealthCheck(ctx context.Context) error {
	select {
	case <-time.After(f.delay):
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestGateway_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     map[string]fakeCheck
		wantStatus int
		wantBody   string
		wantFailed []string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "all healthy",
			checks:     map[string]fakeCheck{"kvstore": {}, "content": {}},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "one failing",
			checks:     map[string]fakeCheck{"kvstore": {err: errors.New("database is locked")}, "content": {}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
			wantFailed: []string{"kvstore"},
		},
		{
			name:       "slow check times out",
			checks:     map[string]fakeCheck{"tracking": {delay: time.Minute}},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "degraded",
			wantFailed: []string{"tracking"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, appCtx := newTestGateway(t, AuthConfig{})
			g.config.HealthTimeout = 50 * time.Millisecond
			for name, c := range tt.checks {
				appCtx.RegisterService(name+".health", c)
			}
			appCtx.RegisterService("kvstore.collections", 1)
			g.dispatcher.Register("messenger", &mockWebhookHandler{}, "")
			startGateway(t, g)

			resp := doGet(t, "http://"+g.Addr()+"/health", "")
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var health HealthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if health.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", health.Status, tt.wantBody)
			}
			if len(health.Checks) != len(tt.checks) {
				t.Errorf("checks = %+v, want %d entries", health.Checks, len(tt.checks))
			}
			var failed []string
			for i, c := range health.Checks {
				if i > 0 && health.Checks[i-1].Name > c.Name {
					t.Errorf("checks not sorted: %+v", health.Checks)
				}
				if !c.OK {
					failed = append(failed, c.Name)
				}
			}
			if strings.Join(failed, ",") != strings.Join(tt.wantFailed, ",") {
				t.Errorf("failed checks = %v, want %v", failed, tt.wantFailed)
			}
			if len(health.Webhooks) != 1 || health.Webhooks[0] != "messenger" {
				t.Errorf("webhooks = %v", health.Webhooks)
			}
		})
	}
}

func TestGateway_MetricsAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		auth      AuthConfig
		token     string
		wantCode  int
		wantBytes bool
	}{
		{name: "open", wantCode: http.StatusOK, wantBytes: true},
		{name: "token missing", auth: AuthConfig{BearerToken: "scrape"}, wantCode: http.StatusUnauthorized},
		{name: "token wrong", auth: AuthConfig{BearerToken: "scrape"}, token: "nope", wantCode: http.StatusUnauthorized},
		{name: "token ok", auth: AuthConfig{BearerToken: "scrape"}, token: "scrape", wantCode: http.StatusOK, wantBytes: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, _ := newTestGateway(t, tt.auth)
			startGateway(t, g)

			resp := doGet(t, "http://"+g.Addr()+"/metrics", tt.token)
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantBytes && !strings.Contains(string(body), "go_goroutines") {
				t.Error("metrics body lacks runtime metrics")
			}

			// /health is never behind auth.
			health := doGet(t, "http://"+g.Addr()+"/health", "")
			_ = health.Body.Close()
			if health.StatusCode != http.StatusOK {
				t.Errorf("health status = %d, want 200", health.StatusCode)
			}
		})
	}
}

func TestGateway_StartFailsOnBusyPort(t *testing.T) {
	t.Parallel()

	first, _ := newTestGateway(t, AuthConfig{})
	startGateway(t, first)

	second, _ := newTestGateway(t, AuthConfig{})
	second.config.Bind = first.Addr()
	if err := second.Start(); err == nil {
		_ = second.Stop(context.Background())
		t.Fatal("second gateway bound an address already in use")
	}
}

func TestGateway_StopBeforeStart(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if g.Addr() != "" {
		t.Errorf("Addr() = %q before Start", g.Addr())
	}
}

// newTestGateway provisions a gateway on an ephemeral local port.
func newTestGateway(t *testing.T, auth AuthConfig) (*Gateway, *core.AppContext) {
	t.Helper()
	appCtx := core.NewAppContext(testLogger(), t.TempDir())
	g := &Gateway{config: Config{Bind: "127.0.0.1:0", Auth: auth}}
	if err := g.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	return g, appCtx
}

func startGateway(t *testing.T, g *Gateway) {
	t.Helper()
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = g.Stop(context.Background()) })
}

// doGet sends a GET, with a bearer token when one is given.
func doGet(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustYAMLNode(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	return doc.Content[0]
}

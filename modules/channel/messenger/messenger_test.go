package messenger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/gateway"
	"github.com/flemzord/newsclaw/internal/security"
	"github.com/flemzord/newsclaw/pkg/message"
	"gopkg.in/yaml.v3"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		c := Config{PageToken: "tok", VerifyToken: "v"}
		c.defaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing page token", mutate: func(c *Config) { c.PageToken = "" }, wantErr: "page_token"},
		{name: "missing verify token", mutate: func(c *Config) { c.VerifyToken = "" }, wantErr: "verify_token"},
		{name: "bad url", mutate: func(c *Config) { c.APIURL = "ftp://graph" }, wantErr: "api_url"},
		{name: "bad version", mutate: func(c *Config) { c.APIVersion = "6" }, wantErr: "api_version"},
		{name: "timeout too long", mutate: func(c *Config) { c.Timeout = time.Hour }, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(&c)
			err := c.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	c.defaults()
	if c.APIURL != "https://graph.facebook.com" || c.APIVersion != "v6.0" {
		t.Errorf("api = %s %s", c.APIURL, c.APIVersion)
	}
	if c.Timeout != 10*time.Second || c.WebhookSource != "messenger" {
		t.Errorf("timeout=%v source=%q", c.Timeout, c.WebhookSource)
	}
}

func TestMessenger_Lifecycle(t *testing.T) {
	appCtx := core.NewAppContext(testLogger(), t.TempDir())
	redactor := security.NewRedactor()
	appCtx.RegisterService("security.redactor", redactor)

	gw := &gateway.Gateway{}
	if err := gw.Provision(appCtx); err != nil {
		t.Fatalf("gateway Provision: %v", err)
	}

	m := &Messenger{}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte("page_token: EAAsecretpagetoken\nverify_token: v\napp_secret: appsecret\n"), &node); err != nil {
		t.Fatal(err)
	}
	if err := m.Configure(node.Content[0]); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := redactor.Redact("signed with appsecret"); strings.Contains(got, "appsecret") {
		t.Errorf("app secret not registered with redactor: %q", got)
	}

	if err := m.Start(); err == nil {
		t.Fatal("Start without inbox should fail")
	}

	m.SetInbox(func(message.InboundEvent) error { return nil })
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	d, err := core.ServiceAs[*gateway.WebhookDispatcher](appCtx, "gateway.webhook_dispatcher")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Sources(); len(got) != 1 || got[0] != "messenger" {
		t.Errorf("registered sources = %v", got)
	}
	if m.Attachments() == nil {
		t.Error("Attachments() is nil")
	}
}

func TestMessenger_StartWithoutGateway(t *testing.T) {
	appCtx := core.NewAppContext(testLogger(), t.TempDir())

	m := &Messenger{config: Config{PageToken: "t", VerifyToken: "v"}}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	m.SetInbox(func(message.InboundEvent) error { return nil })

	if err := m.Start(); err == nil {
		t.Fatal("expected error when gateway dispatcher is missing")
	}
}

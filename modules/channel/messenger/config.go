package messenger

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

var versionPattern = regexp.MustCompile(`^v\d+\.\d+$`)

// Config holds the Messenger channel configuration.
type Config struct {
	// PageToken is the page access token sent as access_token.
	PageToken string `yaml:"page_token"`

	// AppSecret signs webhook payloads (X-Hub-Signature-256).
	AppSecret string `yaml:"app_secret"`

	// VerifyToken is echoed back during the webhook subscription handshake.
	VerifyToken string `yaml:"verify_token"`

	APIURL     string        `yaml:"api_url"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`

	// WebhookSource is the gateway path segment: /webhooks/{source}.
	WebhookSource string `yaml:"webhook_source"`
}

func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = "https://graph.facebook.com"
	}
	if c.APIVersion == "" {
		c.APIVersion = "v6.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.WebhookSource == "" {
		c.WebhookSource = "messenger"
	}
}

func (c *Config) validate() error {
	if c.PageToken == "" {
		return fmt.Errorf("messenger: page_token is required")
	}
	if c.VerifyToken == "" {
		return fmt.Errorf("messenger: verify_token is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("messenger: api_url must be a valid http/https URL, got %q", c.APIURL)
	}
	if !versionPattern.MatchString(c.APIVersion) {
		return fmt.Errorf("messenger: api_version must look like v6.0, got %q", c.APIVersion)
	}
	if c.Timeout > 2*time.Minute {
		return fmt.Errorf("messenger: timeout must be at most 2m, got %s", c.Timeout)
	}
	return nil
}

package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/gateway"
	"github.com/flemzord/newsclaw/internal/security"
	"github.com/flemzord/newsclaw/pkg/message"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Messenger{})
}

// Compile-time interface guards.
var (
	_ channel.Channel      = (*Messenger)(nil)
	_ channel.MediaChannel = (*Messenger)(nil)
	_ channel.Typer        = (*Messenger)(nil)
	_ core.Configurable    = (*Messenger)(nil)
	_ core.Provisioner     = (*Messenger)(nil)
	_ core.Validator       = (*Messenger)(nil)
	_ core.Starter         = (*Messenger)(nil)
	_ core.Stopper         = (*Messenger)(nil)
)

// Messenger implements the Messenger channel. Outbound calls are served by
// the embedded Client.
type Messenger struct {
	*Client

	config      Config
	logger      *slog.Logger
	appCtx      *core.AppContext
	inbox       func(message.InboundEvent) error
	attachments *AttachmentCache
	receiver    *WebhookReceiver
}

// ModuleInfo implements core.Module.
func (m *Messenger) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "channel.messenger",
		New: func() core.Module { return &Messenger{} },
	}
}

// Configure implements core.Configurable.
func (m *Messenger) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("messenger: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Messenger) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.appCtx = ctx
	m.logger = ctx.Logger
	m.Client = NewClient(m.config.PageToken, m.config.APIURL, m.config.APIVersion, m.config.Timeout)
	m.attachments = NewAttachmentCache(m.Client)

	// Keep the page token and app secret out of log output.
	if redactor, err := core.ServiceAs[*security.Redactor](ctx, "security.redactor"); err == nil {
		redactor.AddLiteral(m.config.PageToken)
		redactor.AddLiteral(m.config.AppSecret)
	}
	return nil
}

// Validate implements core.Validator.
func (m *Messenger) Validate() error {
	return m.config.validate()
}

// Start implements core.Starter. It registers the webhook receiver with the
// gateway dispatcher.
func (m *Messenger) Start() error {
	if m.inbox == nil {
		return errors.New("messenger: inbox not set, call SetInbox before Start")
	}

	dispatcher, err := core.ServiceAs[*gateway.WebhookDispatcher](m.appCtx, "gateway.webhook_dispatcher")
	if err != nil {
		return fmt.Errorf("messenger: %w (is the gateway module loaded?)", err)
	}

	if m.config.AppSecret == "" {
		m.logger.Warn("messenger webhook running without app_secret, signatures are not checked")
	}

	m.receiver = NewWebhookReceiver(m.inbox, m.logger, string(m.ModuleInfo().ID), m.config.VerifyToken)
	dispatcher.Register(m.config.WebhookSource, m.receiver, m.config.AppSecret)

	m.logger.Info("messenger webhook registered",
		"source", m.config.WebhookSource,
		"api_version", m.config.APIVersion,
	)
	return nil
}

// Stop implements core.Stopper.
func (m *Messenger) Stop(_ context.Context) error {
	if m.logger != nil {
		m.logger.Info("messenger channel stopping", "cached_attachments", m.attachments.Len())
	}
	return nil
}

// SetInbox implements channel.Channel.
func (m *Messenger) SetInbox(fn func(ev message.InboundEvent) error) {
	m.inbox = fn
}

// Attachments implements channel.MediaChannel.
func (m *Messenger) Attachments() channel.AttachmentResolver {
	return m.attachments
}

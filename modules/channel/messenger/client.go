package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/pkg/message"
)

const maxResponseBytes = 1 << 20 // 1 MiB

// Client is a thin HTTP wrapper around the Graph Send API. Sends are never
// retried: the API has no idempotency key, so a retry may deliver twice.
type Client struct {
	token   string
	baseURL string
	version string
	http    *http.Client
}

var (
	_ channel.Transport = (*Client)(nil)
	_ channel.Typer     = (*Client)(nil)
)

// NewClient creates a Graph API client. Per-call deadlines come from the
// caller's context; timeout is a backstop for calls without one.
func NewClient(token, baseURL, version string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: baseURL,
		version: version,
		http:    &http.Client{Timeout: timeout},
	}
}

// do POSTs payload as JSON to the versioned Graph path and decodes the
// response into T.
func do[T any](ctx context.Context, c *Client, path string, payload any) (*T, error) {
	endpoint := fmt.Sprintf("%s/%s%s?access_token=%s", c.baseURL, c.version, path, url.QueryEscape(c.token))

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("messenger: marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("messenger: create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// *url.Error embeds the token-bearing URL; keep only the cause.
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return nil, fmt.Errorf("messenger: %s request failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("messenger: read %s response: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var ge graphError
		if err := json.Unmarshal(body, &ge); err == nil && ge.Error != nil {
			ge.Error.Status = resp.StatusCode
			return nil, ge.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("messenger: decode %s response: %w", path, err)
	}
	return &out, nil
}

// Send posts a raw Send API request.
func (c *Client) Send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	return do[SendResponse](ctx, c, "/me/messages", req)
}

// UploadAttachment uploads media from url and returns its reusable id.
func (c *Client) UploadAttachment(ctx context.Context, mediaURL string, typ message.AttachmentType) (string, error) {
	resp, err := do[AttachmentUploadResponse](ctx, c, "/me/message_attachments", AttachmentUploadRequest{
		Message: OutMessage{Attachment: &OutAttachment{
			Type:    string(typ),
			Payload: MediaPayload{URL: mediaURL, IsReusable: true},
		}},
	})
	if err != nil {
		return "", err
	}
	if resp.AttachmentID == "" {
		return "", fmt.Errorf("messenger: upload of %s returned no attachment_id", mediaURL)
	}
	return resp.AttachmentID, nil
}

func (c *Client) sendMessage(ctx context.Context, env channel.Envelope, msg *OutMessage) (channel.Receipt, error) {
	resp, err := c.Send(ctx, SendRequest{
		Recipient:     Recipient{ID: env.Recipient},
		Message:       msg,
		MessagingType: env.MessagingType,
		Tag:           env.Tag,
	})
	if err != nil {
		return channel.Receipt{}, err
	}
	return channel.Receipt{RecipientID: resp.RecipientID, MessageID: resp.MessageID}, nil
}

// SendText implements channel.Transport.
func (c *Client) SendText(ctx context.Context, env channel.Envelope, text string, qr []message.QuickReply) (channel.Receipt, error) {
	return c.sendMessage(ctx, env, &OutMessage{Text: &text, QuickReplies: qr})
}

// SendButtons implements channel.Transport.
func (c *Client) SendButtons(ctx context.Context, env channel.Envelope, text string, buttons []message.Button, qr []message.QuickReply) (channel.Receipt, error) {
	if len(buttons) > message.MaxElementButtons {
		buttons = buttons[:message.MaxElementButtons]
	}
	return c.sendMessage(ctx, env, &OutMessage{
		Attachment: &OutAttachment{
			Type:    "template",
			Payload: message.ButtonTemplate(text, buttons),
		},
		QuickReplies: qr,
	})
}

// SendAttachment implements channel.Transport.
func (c *Client) SendAttachment(ctx context.Context, env channel.Envelope, typ message.AttachmentType, attachmentID string) (channel.Receipt, error) {
	return c.sendMessage(ctx, env, &OutMessage{
		Attachment: &OutAttachment{
			Type:    string(typ),
			Payload: MediaPayload{AttachmentID: attachmentID},
		},
	})
}

// SendCarousel implements channel.Transport.
func (c *Client) SendCarousel(ctx context.Context, env channel.Envelope, elements []message.CarouselElement, qr []message.QuickReply) (channel.Receipt, error) {
	return c.sendMessage(ctx, env, &OutMessage{
		Attachment: &OutAttachment{
			Type:    "template",
			Payload: message.GenericTemplate(elements),
		},
		QuickReplies: qr,
	})
}

// SendTyping implements channel.Typer.
func (c *Client) SendTyping(ctx context.Context, recipient string) error {
	_, err := c.Send(ctx, SendRequest{
		Recipient:    Recipient{ID: recipient},
		SenderAction: "typing_on",
	})
	return err
}

package handler

import (
	"context"
	"fmt"

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/pkg/message"
)

// PushOutroPayload selects the push whose outro is sent.
type PushOutroPayload struct {
	Action string `json:"action"`
	Push   int64  `json:"push"`
}

// PushOutro sends a push's media followed by its outro text. The two form
// one sequence, so a failed media step means the outro is never sent.
type PushOutro struct {
	repo content.Repository
}

// NewPushOutro creates the push_outro handler.
func NewPushOutro(repo content.Repository) *PushOutro {
	return &PushOutro{repo: repo}
}

// Handle implements Handler.
func (h *PushOutro) Handle(ctx context.Context, req Request) (Reply, error) {
	var p PushOutroPayload
	if err := req.Payload.Decode(&p); err != nil {
		return Reply{}, err
	}
	if p.Push == 0 {
		return Reply{}, fmt.Errorf("%w: push_outro without push id", ErrInvalidPayload)
	}

	push, err := h.repo.Push(ctx, p.Push)
	if err != nil {
		return Reply{}, fmt.Errorf("handler: push %d: %w", p.Push, err)
	}

	var media *message.Attachment
	if push.Media != "" {
		media = &message.Attachment{URL: push.Media}
	}

	switch {
	case push.Outro != "":
		return Reply{Content: message.Content{{Text: push.Outro, Attachment: media}}}, nil
	case media != nil:
		return Reply{Attachments: []message.Attachment{*media}}, nil
	default:
		return Reply{}, nil
	}
}

package handler

import (
	"github.com/flemzord/newsclaw/internal/channel"
	"github.com/flemzord/newsclaw/pkg/message"
)

// Reply is what a handler wants delivered. Attachments go first, then
// either Content (with Trailing on its last fragment) or a Carousel.
type Reply struct {
	Attachments []message.Attachment
	Content     message.Content
	Trailing    message.Trailing

	Carousel             []message.CarouselElement
	CarouselQuickReplies []message.QuickReply
}

// TextReply is a single text message with optional quick replies.
func TextReply(text string, qr ...message.QuickReply) Reply {
	return Reply{
		Content:  message.TextContent(text),
		Trailing: message.Trailing{QuickReplies: qr},
	}
}

// CarouselReply is a generic template. Elements are truncated to the
// transport limit when the reply is turned into steps.
func CarouselReply(elements []message.CarouselElement, qr ...message.QuickReply) Reply {
	return Reply{Carousel: elements, CarouselQuickReplies: qr}
}

// IsZero reports whether the reply has nothing to send.
func (r Reply) IsZero() bool {
	return len(r.Attachments) == 0 && len(r.Content) == 0 && len(r.Carousel) == 0
}

// Steps turns the reply into ordered delivery steps. Long texts are split
// to the transport limit before sequencing.
func (r Reply) Steps() ([]channel.Step, error) {
	steps := make([]channel.Step, 0, len(r.Attachments)+2*len(r.Content)+1)
	for _, a := range r.Attachments {
		steps = append(steps, channel.AttachmentStep(a))
	}

	if len(r.Content) > 0 {
		seq, err := channel.Sequence(channel.SplitLongFragments(r.Content, channel.MaxTextLength), r.Trailing)
		if err != nil {
			return nil, err
		}
		steps = append(steps, seq...)
	}

	if len(r.Carousel) > 0 {
		elements := message.TruncateCarousel(r.Carousel, message.MaxCarouselElements)
		steps = append(steps, channel.CarouselStep(elements, r.CarouselQuickReplies...))
	}
	return steps, nil
}

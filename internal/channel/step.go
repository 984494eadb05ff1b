package channel

import "github.com/flemzord/newsclaw/pkg/message"

// StepKind discriminates delivery steps.
type StepKind string

// Delivery step kinds.
const (
	StepAttachment StepKind = "attachment"
	StepText       StepKind = "text"
	StepButtons    StepKind = "buttons"
	StepCarousel   StepKind = "carousel"
)

// Step is one transport call in a delivery sequence.
type Step struct {
	Kind         StepKind
	Text         string
	Attachment   message.Attachment
	Buttons      []message.Button
	Elements     []message.CarouselElement
	QuickReplies []message.QuickReply
}

// AttachmentStep sends a media attachment.
func AttachmentStep(a message.Attachment) Step {
	return Step{Kind: StepAttachment, Attachment: a}
}

// TextStep sends text, optionally with quick replies.
func TextStep(text string, quickReplies ...message.QuickReply) Step {
	return Step{Kind: StepText, Text: text, QuickReplies: quickReplies}
}

// ButtonsStep sends text as a button template.
func ButtonsStep(text string, buttons []message.Button, quickReplies ...message.QuickReply) Step {
	return Step{Kind: StepButtons, Text: text, Buttons: buttons, QuickReplies: quickReplies}
}

// CarouselStep sends a generic template. Callers truncate elements with
// message.TruncateCarousel first.
func CarouselStep(elements []message.CarouselElement, quickReplies ...message.QuickReply) Step {
	return Step{Kind: StepCarousel, Elements: elements, QuickReplies: quickReplies}
}

// HasTrailing reports whether the step carries interactive trailing elements.
func (s Step) HasTrailing() bool {
	return len(s.Buttons) > 0 || len(s.QuickReplies) > 0
}

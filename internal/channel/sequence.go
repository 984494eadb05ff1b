package channel

import "github.com/flemzord/newsclaw/pkg/message"

// Sequence computes the ordered delivery steps for content.
//
// Every fragment but the last yields its attachment (if any) followed by
// its text, even when the text is empty. The last fragment yields its
// attachment followed by exactly one step carrying trailing: a button
// template when trailing has buttons, plain text with the quick replies
// otherwise. No other step carries trailing elements.
func Sequence(content message.Content, trailing message.Trailing) ([]Step, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	head, tail := content[:len(content)-1], content[len(content)-1]
	steps := make([]Step, 0, 2*len(content))

	for _, f := range head {
		if f.HasAttachment() {
			steps = append(steps, AttachmentStep(*f.Attachment))
		}
		steps = append(steps, TextStep(f.Text))
	}

	if tail.HasAttachment() {
		steps = append(steps, AttachmentStep(*tail.Attachment))
	}
	if len(trailing.Buttons) > 0 {
		steps = append(steps, ButtonsStep(tail.Text, trailing.Buttons, trailing.QuickReplies...))
	} else {
		steps = append(steps, TextStep(tail.Text, trailing.QuickReplies...))
	}
	return steps, nil
}

package message

// Attachment is a media reference carried by a fragment. An empty Type is
// inferred from the URL at dispatch time.
type Attachment struct {
	URL  string         `json:"url"`
	Type AttachmentType `json:"type,omitempty"`
}

// Fragment is one ordered piece of a multi-part message. Text may be empty;
// it is still delivered to keep the fragment's position.
type Fragment struct {
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// HasAttachment reports whether the fragment carries a usable attachment.
func (f Fragment) HasAttachment() bool {
	return f.Attachment != nil && f.Attachment.URL != ""
}

// Content is an ordered sequence of fragments delivered as one logical
// message. A deliverable Content has at least one fragment.
type Content []Fragment

// NewContent builds content from a leading fragment and its continuations.
func NewContent(first Fragment, next ...Fragment) Content {
	c := make(Content, 0, 1+len(next))
	c = append(c, first)
	return append(c, next...)
}

// TextContent builds single-fragment content with no attachment.
func TextContent(text string) Content {
	return Content{{Text: text}}
}

// Trailing holds the interactive elements attached to the final fragment of
// a message only.
type Trailing struct {
	Buttons      []Button
	QuickReplies []QuickReply
}

// IsZero reports whether no trailing elements are set.
func (t Trailing) IsZero() bool {
	return len(t.Buttons) == 0 && len(t.QuickReplies) == 0
}

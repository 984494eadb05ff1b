package message

// ButtonKind discriminates the Button variants.
type ButtonKind string

// Button variants.
const (
	ButtonPostback ButtonKind = "postback"
	ButtonURL      ButtonKind = "web_url"
	ButtonShare    ButtonKind = "element_share"
)

// Webview height ratios for URL buttons.
const (
	WebviewFull    = "full"
	WebviewTall    = "tall"
	WebviewCompact = "compact"
)

// Button is a closed tagged variant; construct it with NewPostback,
// NewURLButton or NewShareButton. Type selects which fields are meaningful.
type Button struct {
	Type               ButtonKind     `json:"type"`
	Title              string         `json:"title,omitempty"`
	Payload            string         `json:"payload,omitempty"`
	URL                string         `json:"url,omitempty"`
	WebviewHeightRatio string         `json:"webview_height_ratio,omitempty"`
	ShareContents      *ShareContents `json:"share_contents,omitempty"`
}

// ShareContents is the preview shown when a share button is used.
type ShareContents struct {
	Attachment TemplateAttachment `json:"attachment"`
}

// NewPostback builds a postback button. Non-string payloads are JSON encoded.
func NewPostback(title string, payload any) Button {
	return Button{
		Type:    ButtonPostback,
		Title:   title,
		Payload: EncodePayload(payload),
	}
}

// NewURLButton builds a button opening url in a webview. An empty ratio
// defaults to WebviewFull.
func NewURLButton(title, url, ratio string) Button {
	if ratio == "" {
		ratio = WebviewFull
	}
	return Button{
		Type:               ButtonURL,
		Title:              title,
		URL:                url,
		WebviewHeightRatio: ratio,
	}
}

// NewShareButton builds a share button. With no preview elements the
// transport shares the enclosing element.
func NewShareButton(preview ...CarouselElement) Button {
	b := Button{Type: ButtonShare}
	if len(preview) > 0 {
		b.ShareContents = &ShareContents{
			Attachment: TemplateAttachment{
				Type:    "template",
				Payload: GenericTemplate(preview),
			},
		}
	}
	return b
}

// QuickReply is a reply chip shown under the final message.
type QuickReply struct {
	ContentType string `json:"content_type"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
	ImageURL    string `json:"image_url,omitempty"`
}

// NewQuickReply builds a text quick reply. Non-string payloads are JSON
// encoded; an empty imageURL is omitted.
func NewQuickReply(title string, payload any, imageURL string) QuickReply {
	return QuickReply{
		ContentType: "text",
		Title:       title,
		Payload:     EncodePayload(payload),
		ImageURL:    imageURL,
	}
}

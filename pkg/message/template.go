package message

// Template types understood by the transport.
const (
	TemplateGeneric = "generic"
	TemplateButton  = "button"
)

// Template is the payload of a structured message.
type Template struct {
	TemplateType string            `json:"template_type"`
	Text         string            `json:"text,omitempty"`
	Buttons      []Button          `json:"buttons,omitempty"`
	Elements     []CarouselElement `json:"elements,omitempty"`
}

// TemplateAttachment wraps a Template as a message attachment.
type TemplateAttachment struct {
	Type    string   `json:"type"`
	Payload Template `json:"payload"`
}

// GenericTemplate builds a carousel template.
func GenericTemplate(elements []CarouselElement) Template {
	return Template{TemplateType: TemplateGeneric, Elements: elements}
}

// ButtonTemplate builds a text message with buttons.
func ButtonTemplate(text string, buttons []Button) Template {
	return Template{TemplateType: TemplateButton, Text: text, Buttons: buttons}
}

// DefaultAction is the action taken when a carousel element is tapped.
type DefaultAction struct {
	Type               ButtonKind `json:"type"`
	URL                string     `json:"url"`
	WebviewHeightRatio string     `json:"webview_height_ratio,omitempty"`
}

// CarouselElement is one card of a generic template.
type CarouselElement struct {
	Title         string         `json:"title"`
	Subtitle      string         `json:"subtitle,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	DefaultAction *DefaultAction `json:"default_action,omitempty"`
	Buttons       []Button       `json:"buttons,omitempty"`
}

// NewCarouselElement builds a carousel element. Empty subtitle and imageURL
// are omitted from the payload, as is an empty button list. Buttons beyond
// MaxElementButtons are dropped.
func NewCarouselElement(title, subtitle, imageURL string, buttons ...Button) CarouselElement {
	el := CarouselElement{
		Title:    title,
		Subtitle: subtitle,
		ImageURL: imageURL,
	}
	if len(buttons) > MaxElementButtons {
		buttons = buttons[:MaxElementButtons]
	}
	if len(buttons) > 0 {
		el.Buttons = append([]Button(nil), buttons...)
	}
	return el
}

// WithDefaultAction returns a copy of el that opens url when tapped.
func (el CarouselElement) WithDefaultAction(url, ratio string) CarouselElement {
	el.DefaultAction = &DefaultAction{Type: ButtonURL, URL: url, WebviewHeightRatio: ratio}
	return el
}

// TruncateCarousel returns at most limit elements, keeping order. A limit
// outside 1..MaxCarouselElements is clamped to MaxCarouselElements.
func TruncateCarousel(elements []CarouselElement, limit int) []CarouselElement {
	if limit <= 0 || limit > MaxCarouselElements {
		limit = MaxCarouselElements
	}
	if len(elements) <= limit {
		return elements
	}
	return elements[:limit]
}

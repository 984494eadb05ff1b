// Package message defines the platform-agnostic content model exchanged
// between handlers and channels: fragmented content with optional media,
// and the interactive elements (buttons, quick replies, carousel elements)
// a recipient can tap.
//
// JSON field names follow the Messenger Send API so channel modules can
// embed these values in request bodies without a conversion layer.
package message

import (
	"encoding/json"
	"fmt"
)

// Limits imposed by the messaging transport.
const (
	// MaxCarouselElements is the maximum number of elements in one generic
	// template. Callers truncate with TruncateCarousel before dispatch.
	MaxCarouselElements = 10

	// MaxElementButtons is the maximum number of buttons on one element or
	// button template.
	MaxElementButtons = 3
)

// EncodePayload converts a postback or quick-reply payload to the string
// form the transport accepts. Strings pass through unchanged; anything else
// is JSON encoded (map keys sorted, so equal payloads encode identically).
// A nil payload encodes as "null", never as an empty string.
func EncodePayload(payload any) string {
	switch p := payload.(type) {
	case string:
		return p
	case json.RawMessage:
		return string(p)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(data)
}

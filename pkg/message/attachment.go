package message

import (
	"net/url"
	"path"
	"strings"
)

// AttachmentType is the transport media category of an attachment.
type AttachmentType string

// Supported attachment types. AttachmentUnknown is the zero value.
const (
	AttachmentUnknown AttachmentType = ""
	AttachmentImage   AttachmentType = "image"
	AttachmentVideo   AttachmentType = "video"
	AttachmentAudio   AttachmentType = "audio"
	AttachmentFile    AttachmentType = "file"
)

var extensionTypes = map[string]AttachmentType{
	".jpg":  AttachmentImage,
	".jpeg": AttachmentImage,
	".png":  AttachmentImage,
	".gif":  AttachmentImage,
	".mp4":  AttachmentVideo,
	".mp3":  AttachmentAudio,
}

// InferAttachmentType guesses the media category of ref (a file name or
// URL) from its extension. Query strings and fragments are ignored and the
// match is case-insensitive. Unrecognised extensions yield AttachmentUnknown.
func InferAttachmentType(ref string) AttachmentType {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	return extensionTypes[strings.ToLower(path.Ext(p))]
}

package message

import "testing"

func TestInferAttachmentType(t *testing.T) {
	tests := []struct {
		ref  string
		want AttachmentType
	}{
		{"photo.jpg", AttachmentImage},
		{"photo.JPEG", AttachmentImage},
		{"https://cdn.example.com/a/b.png", AttachmentImage},
		{"https://cdn.example.com/anim.gif?v=2", AttachmentImage},
		{"clip.mp4", AttachmentVideo},
		{"https://cdn.example.com/news.mp3#t=10", AttachmentAudio},
		{"report.pdf", AttachmentUnknown},
		{"noextension", AttachmentUnknown},
		{"", AttachmentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := InferAttachmentType(tt.ref); got != tt.want {
				t.Errorf("InferAttachmentType(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

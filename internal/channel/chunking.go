package channel

import (
	"strings"
	"unicode/utf8"

	"github.com/flemzord/newsclaw/pkg/message"
)

// MaxTextLength is the transport's limit for one text message, in characters.
const MaxTextLength = 2000

// SplitLongFragments splits every fragment whose text exceeds maxLen
// characters into consecutive fragments, breaking at line boundaries where
// possible. A fragment's attachment stays with its first piece, so
// attachment-before-text ordering is unchanged. maxLen <= 0 disables
// splitting.
func SplitLongFragments(content message.Content, maxLen int) message.Content {
	if maxLen <= 0 {
		return content
	}

	out := make(message.Content, 0, len(content))
	for _, f := range content {
		if utf8.RuneCountInString(f.Text) <= maxLen {
			out = append(out, f)
			continue
		}
		for i, chunk := range splitText(f.Text, maxLen) {
			piece := message.Fragment{Text: chunk}
			if i == 0 {
				piece.Attachment = f.Attachment
			}
			out = append(out, piece)
		}
	}
	return out
}

// splitText breaks text into chunks of at most maxLen characters.
func splitText(text string, maxLen int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line) + 1

		if currentLen+lineLen > maxLen {
			if currentLen > 0 {
				chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
				current.Reset()
				currentLen = 0
			}
			// A single line longer than the limit is force-split.
			if lineLen > maxLen {
				chunks = append(chunks, forceSplit(line, maxLen)...)
				continue
			}
		}

		current.WriteString(line)
		current.WriteByte('\n')
		currentLen += lineLen
	}

	if currentLen > 0 {
		chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
	}
	return chunks
}

// forceSplit breaks a single long line into chunks of at most maxLen runes.
func forceSplit(line string, maxLen int) []string {
	runes := []rune(line)
	var parts []string
	for len(runes) > maxLen {
		parts = append(parts, string(runes[:maxLen]))
		runes = runes[maxLen:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

package router

import (
	"context"

	"github.com/flemzord/newsclaw/internal/handler"
)

// Classifier maps free text to an action payload. Intent detection runs
// outside this process; implementations call it.
type Classifier interface {
	// Classify returns ok=false when the text matched no intent.
	Classify(ctx context.Context, sessionID, text string) (p handler.Payload, ok bool, err error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, sessionID, text string) (handler.Payload, bool, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, sessionID, text string) (handler.Payload, bool, error) {
	return f(ctx, sessionID, text)
}

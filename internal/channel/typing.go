package channel

import (
	"context"
	"time"
)

// Typer is implemented by transports that can show a typing indicator
// while an event is being handled.
type Typer interface {
	SendTyping(ctx context.Context, recipient string) error
}

// StartTypingLoop sends a typing indicator to recipient, then repeats it at
// the given interval until ctx is done.
func StartTypingLoop(ctx context.Context, t Typer, recipient string, interval time.Duration) {
	_ = t.SendTyping(ctx, recipient)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = t.SendTyping(ctx, recipient)
			}
		}
	}()
}

package channel

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps channel names to channels so replies reach the platform an
// event came from.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

// Register adds a channel under the given name.
// Returns ErrDuplicateChannel if the name is already taken.
func (r *Registry) Register(name string, ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
	}
	r.channels[name] = ch
	return nil
}

// Get returns the channel registered under name.
func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoChannel, name)
	}
	return ch, nil
}

// Names returns the registered channel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

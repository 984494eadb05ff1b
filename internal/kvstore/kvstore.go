// Package kvstore defines the key-value store boundary session state is
// resolved from. Each Store is bound to one named collection and keyed by
// the platform session id.
package kvstore

import (
	"context"
	"errors"
)

// Collection names.
const (
	CollectionSubscriptions = "subscriptions"
	CollectionUserStates    = "userstates"
	CollectionUsers         = "users"
	CollectionTracking      = "tracking"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no record exists under the key.
	ErrNotFound = errors.New("kvstore: record not found")

	// ErrExists indicates Create was called for a key that already has a record.
	ErrExists = errors.New("kvstore: record already exists")
)

// Store reads and writes records of one collection.
type Store interface {
	// Load returns the record stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) (Record, error)

	// Create stores rec under key. It never overwrites: an existing key
	// yields ErrExists and leaves the stored record untouched.
	Create(ctx context.Context, key string, rec Record) error

	// Put stores rec under key, replacing any existing record.
	Put(ctx context.Context, key string, rec Record) error
}

// Opener returns the Store for a named collection.
type Opener interface {
	Collection(name string) Store
}

// Collections bundles the four stores session state is resolved from.
type Collections struct {
	Subscriptions Store
	UserStates    Store
	Users         Store
	Tracking      Store
}

// OpenCollections binds the standard collection names through o.
func OpenCollections(o Opener) Collections {
	return Collections{
		Subscriptions: o.Collection(CollectionSubscriptions),
		UserStates:    o.Collection(CollectionUserStates),
		Users:         o.Collection(CollectionUsers),
		Tracking:      o.Collection(CollectionTracking),
	}
}

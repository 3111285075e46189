package storage

import (
	"context"
	"errors"
)

// DefaultKey is the slot the cart lives under when no session is involved.
const DefaultKey = "molten-motion-cart"

var ErrNotFound = errors.New("cart slot not found")

// Storage is a single durable key-value slot holding a serialized cart.
// Consumers define the behaviour they need, backends only move strings.
type Storage interface {
	// Load returns the stored value or ErrNotFound when nothing was saved yet.
	Load(ctx context.Context) (string, error)
	// Save overwrites the slot with value.
	Save(ctx context.Context, value string) error
}

// Factory builds the Storage for one slot key.
type Factory func(key string) Storage

// SessionKey namespaces a session id under DefaultKey.
func SessionKey(sessionID string) string {
	if sessionID == "" {
		return DefaultKey
	}
	return DefaultKey + ":" + sessionID
}

package guardar

import "context"

// Backend is the host key-value facility a Store persists into.
// GetItem reports ok=false when no entry exists at key.
type Backend interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Swapper is implemented by backends that can replace an entry only when it
// still holds an expected value. Store uses it to detect writers that share
// a root key.
type Swapper interface {
	// CompareAndSwap writes newValue at key if the entry exists and equals
	// oldValue. It returns false without error when the entry has changed.
	CompareAndSwap(ctx context.Context, key, oldValue, newValue string) (bool, error)
}

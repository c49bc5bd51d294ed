package history

import "context"

// ListStore is the minimal list protocol the history window needs. Keys hold
// ordered lists with index 0 as the head (most recent entry).
type ListStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	// PushHead prepends a value, creating the list if needed.
	PushHead(ctx context.Context, key, value string) error
	// PopTail removes and returns the oldest entry. An empty or missing
	// list yields ("", nil).
	PopTail(ctx context.Context, key string) (string, error)
	// RemoveValue removes up to count instances of value, scanning from
	// the head, and reports how many were removed.
	RemoveValue(ctx context.Context, key, value string, count int64) (int64, error)
	Length(ctx context.Context, key string) (int64, error)
	// RangeAll returns the whole list, head first.
	RangeAll(ctx context.Context, key string) ([]string, error)
	// Remove drops the list entirely.
	Remove(ctx context.Context, key string) error
	Close() error
}

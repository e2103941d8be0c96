package subscriber

import "context"

// Repository defines the operations for the set of subscribed chats.
// Add and Remove are idempotent set operations.
type Repository interface {
	Add(ctx context.Context, chatID int64) error
	Remove(ctx context.Context, chatID int64) error
	Contains(ctx context.Context, chatID int64) (bool, error)
	ListAll(ctx context.Context) ([]int64, error)
}

package repository

import "context"

// CartRepository holds the ephemeral per-user cart as a set of course ids.
type CartRepository interface {
	Add(ctx context.Context, userID, courseID string) error
	Remove(ctx context.Context, userID, courseID string) error
	List(ctx context.Context, userID string) ([]string, error)
	Clear(ctx context.Context, userID string) error
}

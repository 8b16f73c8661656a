package redis

import (
	"context"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.CartRepository = (*CartStore)(nil)

// CartStore keeps each cart as a sorted set scored by insertion time, so items
// list in the order they were added. Every write refreshes the TTL.
type CartStore struct {
	cli RedisClient
	ttl time.Duration
	now func() time.Time
}

func NewCartStore(cli RedisClient, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CartStore{cli: cli, ttl: ttl, now: time.Now}
}

func cartKey(userID string) string { return "cart:" + userID }

func (s *CartStore) Add(ctx context.Context, userID, courseID string) error {
	key := cartKey(userID)
	if err := s.cli.ZAddNX(ctx, key, float64(s.now().UnixNano()), courseID); err != nil {
		return domain.StorageError("cart add", err)
	}
	return domain.StorageError("cart touch", s.cli.Expire(ctx, key, s.ttl))
}

func (s *CartStore) Remove(ctx context.Context, userID, courseID string) error {
	key := cartKey(userID)
	if err := s.cli.ZRem(ctx, key, courseID); err != nil {
		return domain.StorageError("cart remove", err)
	}
	return domain.StorageError("cart touch", s.cli.Expire(ctx, key, s.ttl))
}

func (s *CartStore) List(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.cli.ZRange(ctx, cartKey(userID))
	if err != nil && !IsNil(err) {
		return nil, domain.StorageError("cart list", err)
	}
	return ids, nil
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	return domain.StorageError("cart clear", s.cli.Del(ctx, cartKey(userID)))
}

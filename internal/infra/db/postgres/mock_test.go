//go:build !integration

package postgres

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	red "course-marketplace/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCourseRepo mocks the database repository that the course decorator wraps.
type mockInnerCourseRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, c *model.Course) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Course, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.Course, error)
}

func (m *mockInnerCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	return m.SaveFunc(ctx, tx, c)
}
func (m *mockInnerCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerCourseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockUserRepo mocks the users table behind the identity provider.
type mockUserRepo struct {
	UpdateMembershipFunc func(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) (bool, error)
}

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error { return nil }
func (m *mockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) UpdateMembership(ctx context.Context, tx repository.Tx, userID string, mem *model.Membership) (bool, error) {
	return m.UpdateMembershipFunc(ctx, tx, userID, mem)
}
func (m *mockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) { return 0, nil }

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) ZAddNX(ctx context.Context, key string, score float64, member string) error {
	return nil
}
func (m *mockRedisClient) ZRem(ctx context.Context, key string, members ...string) error { return nil }
func (m *mockRedisClient) ZRange(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}
func (m *mockRedisClient) Close() error { return nil }

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/metrics"
	red "course-marketplace/internal/infra/redis"
)

var _ repository.CourseRepository = (*courseRepoCacheDecorator)(nil)

const coursesAllKey = "courses:all"

type courseRepoCacheDecorator struct {
	inner repository.CourseRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCourseRepoCacheDecorator(inner repository.CourseRepository, cache red.RedisClient, ttl time.Duration) repository.CourseRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &courseRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func courseKey(id string) string { return fmt.Sprintf("course:%s", id) }

func (d *courseRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := courseKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var course model.Course
		if json.Unmarshal([]byte(val), &course) == nil {
			metrics.IncCacheRequest("course", "hit")
			return &course, nil
		}
	} else if !red.IsNil(err) {
		metrics.IncCacheRequest("course", "error")
	}

	metrics.IncCacheRequest("course", "miss")
	course, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(course); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return course, nil
}

// Writes invalidate both the course entry and the full catalog listing.
func (d *courseRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	if err := d.inner.Save(ctx, tx, c); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, courseKey(c.ID), coursesAllKey)
	return nil
}

func (d *courseRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}
	val, err := d.cache.Get(ctx, coursesAllKey)
	if err == nil {
		var courses []*model.Course
		if json.Unmarshal([]byte(val), &courses) == nil {
			metrics.IncCacheRequest("course_list", "hit")
			return courses, nil
		}
	} else if !red.IsNil(err) {
		metrics.IncCacheRequest("course_list", "error")
	}

	metrics.IncCacheRequest("course_list", "miss")
	courses, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		if b, err := json.Marshal(courses); err == nil {
			_ = d.cache.Set(ctx, coursesAllKey, b, d.ttl)
		}
	}
	return courses, nil
}

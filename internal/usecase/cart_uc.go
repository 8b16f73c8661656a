// File: internal/usecase/cart_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ CartUseCase = (*cartUC)(nil)

type CartUseCase interface {
	// Add puts a paid, not yet owned course in the cart.
	Add(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error)
	Remove(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error)
	// Get prices the cart from the live catalog. Vanished or now-free courses are dropped.
	Get(ctx context.Context, identity *model.Identity) (*model.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type cartUC struct {
	carts        repository.CartRepository
	catalog      adapter.CatalogProvider
	entitlements EntitlementUseCase
	log          *zerolog.Logger
}

func NewCartUseCase(carts repository.CartRepository, catalog adapter.CatalogProvider, entitlements EntitlementUseCase, logger *zerolog.Logger) *cartUC {
	return &cartUC{carts: carts, catalog: catalog, entitlements: entitlements, log: logger}
}

func (u *cartUC) Add(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error) {
	defer logging.TraceDuration(u.log, "CartUC.Add")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	course, err := u.catalog.FindCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.IsFree {
		return nil, domain.ErrCourseIsFree
	}
	owned, err := u.entitlements.Owns(ctx, id.UserID, course.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, domain.ErrAlreadyOwned
	}
	if err := u.carts.Add(ctx, id.UserID, course.ID); err != nil {
		return nil, err
	}
	metrics.IncCartOperation("add")
	return u.load(ctx, id.UserID)
}

func (u *cartUC) Remove(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error) {
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	if err := u.carts.Remove(ctx, id.UserID, courseID); err != nil {
		return nil, err
	}
	metrics.IncCartOperation("remove")
	return u.load(ctx, id.UserID)
}

func (u *cartUC) Get(ctx context.Context, identity *model.Identity) (*model.Cart, error) {
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	return u.load(ctx, id.UserID)
}

func (u *cartUC) Clear(ctx context.Context, userID string) error {
	if err := u.carts.Clear(ctx, userID); err != nil {
		return err
	}
	metrics.IncCartOperation("clear")
	return nil
}

func (u *cartUC) load(ctx context.Context, userID string) (*model.Cart, error) {
	ids, err := u.carts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart := &model.Cart{UserID: userID, Items: make([]model.CartItem, 0, len(ids))}
	for _, cid := range ids {
		c, err := u.catalog.FindCourse(ctx, cid)
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Debug().Str("course_id", cid).Msg("dropping unknown course from cart")
			continue
		}
		if err != nil {
			return nil, err
		}
		if c.IsFree {
			continue
		}
		cart.Items = append(cart.Items, model.CartItem{CourseID: c.ID, Title: c.Title, Price: c.Price})
	}
	return cart, nil
}

package apiv1

import (
	"time"

	"github.com/samber/lo"

	"course-marketplace/internal/domain/model"
)

type requestDTO struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	UserEmail string                 `json:"user_email"`
	Kind      model.RequestKind      `json:"kind"`
	CourseID  string                 `json:"course_id,omitempty"`
	Tier      model.Tier             `json:"tier,omitempty"`
	Amount    int64                  `json:"amount"`
	Status    model.RequestStatus    `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	DecidedAt *time.Time             `json:"decided_at,omitempty"`
	Contact   *model.CustomerContact `json:"contact,omitempty"`
}

func toRequestDTO(r *model.PaymentRequest) requestDTO {
	d := requestDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		UserEmail: r.UserEmail,
		Kind:      r.Kind,
		CourseID:  r.CourseID,
		Tier:      r.Tier,
		Amount:    r.Amount,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		DecidedAt: r.DecidedAt,
	}
	if !r.Contact.IsZero() {
		d.Contact = r.Contact
	}
	return d
}

func toRequestDTOs(rs []*model.PaymentRequest) []requestDTO {
	return lo.Map(rs, func(r *model.PaymentRequest, _ int) requestDTO { return toRequestDTO(r) })
}

type membershipDTO struct {
	Tier             model.Tier `json:"tier"`
	ActivatedAt      time.Time  `json:"activated_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Active           bool       `json:"active"`
	PaymentRequestID string     `json:"payment_request_id"`
}

type entitlementsDTO struct {
	PurchasedCourseIDs []string       `json:"purchased_course_ids"`
	FreeCourseIDs      []string       `json:"free_course_ids"`
	Membership         *membershipDTO `json:"membership"`
}

type cartDTO struct {
	UserID string           `json:"user_id"`
	Items  []model.CartItem `json:"items"`
	Total  int64            `json:"total"`
}

func toCartDTO(c *model.Cart) cartDTO {
	items := c.Items
	if items == nil {
		items = []model.CartItem{}
	}
	return cartDTO{UserID: c.UserID, Items: items, Total: c.Total()}
}

type addToCartBody struct {
	CourseID string `json:"course_id"`
}

type checkoutCartBody struct {
	Contact *model.CustomerContact `json:"contact"`
}

type checkoutCoursesBody struct {
	CourseIDs []string               `json:"course_ids"`
	Contact   *model.CustomerContact `json:"contact"`
}

type checkoutMembershipBody struct {
	Tier    string                 `json:"tier"`
	Contact *model.CustomerContact `json:"contact"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package model

import (
	"strings"
	"time"

	"course-marketplace/internal/domain"
)

type RequestKind string

const (
	RequestKindCourse     RequestKind = "course"
	RequestKindMembership RequestKind = "membership"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"  // awaiting admin review
	RequestStatusApproved RequestStatus = "approved" // admin verified the off-platform payment
	RequestStatusRejected RequestStatus = "rejected" // admin declined
)

// IsTerminal reports whether s is a decided state.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

func (s RequestStatus) Valid() bool {
	return s == RequestStatusPending || s.IsTerminal()
}

// CustomerContact is the fulfilment/support snapshot captured at checkout.
type CustomerContact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (c *CustomerContact) IsZero() bool {
	return c == nil || (c.FirstName == "" && c.LastName == "" && c.Email == "" && c.Phone == "" && c.Address == "")
}

// PaymentRequest is one claimed off-platform payment awaiting (or after) admin review.
// Only Status and DecidedAt ever change after creation.
type PaymentRequest struct {
	ID        string        // ULID, assigned by the ledger
	UserID    string        // identity snapshot
	UserEmail string        // identity snapshot
	Kind      RequestKind   // course | membership
	CourseID  string        // set for course requests only
	Tier      Tier          // set for membership requests only
	Amount    int64         // whole rupees, price at request time
	Status    RequestStatus // pending -> approved | rejected
	CreatedAt time.Time
	DecidedAt *time.Time
	Contact   *CustomerContact
}

// NewCourseRequest builds an unsaved course purchase request.
func NewCourseRequest(id Identity, courseID string, amount int64, contact *CustomerContact) (*PaymentRequest, error) {
	r := &PaymentRequest{
		UserID:    id.UserID,
		UserEmail: id.Email,
		Kind:      RequestKindCourse,
		CourseID:  strings.TrimSpace(courseID),
		Amount:    amount,
		Status:    RequestStatusPending,
		Contact:   contact,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewMembershipRequest builds an unsaved membership purchase request.
func NewMembershipRequest(id Identity, tier Tier, amount int64, contact *CustomerContact) (*PaymentRequest, error) {
	r := &PaymentRequest{
		UserID:    id.UserID,
		UserEmail: id.Email,
		Kind:      RequestKindMembership,
		Tier:      tier,
		Amount:    amount,
		Status:    RequestStatusPending,
		Contact:   contact,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the kind-specific payload.
func (r *PaymentRequest) Validate() error {
	if r == nil || r.UserID == "" || r.Amount < 0 {
		return domain.ErrInvalidArgument
	}
	switch r.Kind {
	case RequestKindCourse:
		if r.CourseID == "" || r.Tier != "" {
			return domain.ErrInvalidArgument
		}
	case RequestKindMembership:
		if !r.Tier.Valid() || r.CourseID != "" {
			return domain.ErrInvalidArgument
		}
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r *PaymentRequest) IsPending() bool { return r != nil && r.Status == RequestStatusPending }

// Decided returns a copy of r moved to status at the given instant.
// It fails with ErrInvalidTransition when r already left pending.
func (r *PaymentRequest) Decided(status RequestStatus, at time.Time) (*PaymentRequest, error) {
	if !status.IsTerminal() {
		return nil, domain.ErrInvalidArgument
	}
	if !r.IsPending() {
		return nil, domain.ErrInvalidTransition
	}
	cp := *r
	cp.Status = status
	cp.DecidedAt = &at
	return &cp, nil
}

// RequestFilter narrows ledger listings by equality predicates.
type RequestFilter struct {
	UserID string
	Status RequestStatus
	Kind   RequestKind
	Limit  int
}

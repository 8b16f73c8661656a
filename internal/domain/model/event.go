package model

import "time"

type EventType string

const (
	EventRequestCreated  EventType = "payment_request.created"
	EventRequestApproved EventType = "payment_request.approved"
	EventRequestRejected EventType = "payment_request.rejected"
)

// RequestEvent is the lifecycle notification emitted for a payment request.
type RequestEvent struct {
	ID         string        `json:"event_id"`
	Type       EventType     `json:"event_type"`
	RequestID  string        `json:"request_id"`
	UserID     string        `json:"user_id"`
	Kind       RequestKind   `json:"kind"`
	CourseID   string        `json:"course_id,omitempty"`
	Tier       Tier          `json:"tier,omitempty"`
	Amount     int64         `json:"amount"`
	Status     RequestStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventFor maps a request in its current status to a lifecycle event.
func EventFor(r *PaymentRequest, at time.Time) RequestEvent {
	typ := EventRequestCreated
	switch r.Status {
	case RequestStatusApproved:
		typ = EventRequestApproved
	case RequestStatusRejected:
		typ = EventRequestRejected
	}
	return RequestEvent{
		Type:       typ,
		RequestID:  r.ID,
		UserID:     r.UserID,
		Kind:       r.Kind,
		CourseID:   r.CourseID,
		Tier:       r.Tier,
		Amount:     r.Amount,
		Status:     r.Status,
		OccurredAt: at,
	}
}

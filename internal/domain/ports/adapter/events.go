package adapter

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// EventPublisher emits payment request lifecycle events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, events ...model.RequestEvent) error
	Close() error
}

// AdminNotifier tells the reviewing admin that new requests await a decision.
type AdminNotifier interface {
	NotifyPending(ctx context.Context, reqs []*model.PaymentRequest) error
}

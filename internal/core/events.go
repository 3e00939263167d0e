package core

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"gadgets-backend-go/internal/messagequeue"
)

// Event types published after successful writes.
const (
	EventOrderCreated    = "order.created"
	EventOrderPaid       = "order.paid"
	EventOrderShipped    = "order.shipped"
	EventPaymentRecorded = "payment.recorded"
	EventUserRoleChanged = "user.roleChanged"
	EventUserDeleted     = "user.deleted"
)

// Event is the JSON message published for a domain change.
type Event struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId,omitempty"`
	UID        string    `json:"uid,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type queuePublisher struct {
	queue     messagequeue.MessageQueue
	queueName string
	logger    *zap.Logger
}

// NewEventPublisher publishes events to queueName. A nil queue yields a
// publisher that drops every event.
func NewEventPublisher(queue messagequeue.MessageQueue, queueName string, logger *zap.Logger) EventPublisher {
	return &queuePublisher{queue: queue, queueName: queueName, logger: logger}
}

// Publish never fails the caller; delivery problems are logged.
func (p *queuePublisher) Publish(ctx context.Context, event Event) {
	if p.queue == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode event", zap.String("type", event.Type), zap.Error(err))
		return
	}
	if err := p.queue.Publish(ctx, p.queueName, body); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("queue", p.queueName),
			zap.Error(err),
		)
	}
}

package messagequeue

import "context"

// MessageQueue publishes messages to a named queue.
type MessageQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
	Close() error
}

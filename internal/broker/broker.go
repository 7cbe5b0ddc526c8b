package broker

import "context"

// MessageQueue carries bulk ingestion batches from the HTTP layer to the
// worker pool. Consume blocks until the context is cancelled or the queue
// is closed, invoking the handler once per message.
type MessageQueue interface {
	Publish(ctx context.Context, data []byte) error
	Consume(ctx context.Context, handler func([]byte) error) error
	Close() error
}

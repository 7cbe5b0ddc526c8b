package broker

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ChannelQueue is an in-process MessageQueue for single-node deployments and
// tests, where running a Kafka cluster is not worth it.
type ChannelQueue struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func NewChannelQueue(size int) *ChannelQueue {
	return &ChannelQueue{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (q *ChannelQueue) Publish(ctx context.Context, data []byte) error {
	// The closed check must win over a ready buffer slot; a bare select
	// between the two would pick at random.
	select {
	case <-q.done:
		return errors.New("queue closed")
	default:
	}

	select {
	case q.ch <- data:
		return nil
	case <-q.done:
		return errors.New("queue closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Consume(ctx context.Context, handler func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			// Messages accepted before the close still get delivered.
			q.drain(handler)
			return nil
		case data := <-q.ch:
			if err := handler(data); err != nil {
				log.Printf("Error processing message: %v", err)
			}
		}
	}
}

func (q *ChannelQueue) drain(handler func([]byte) error) {
	for {
		select {
		case data := <-q.ch:
			if err := handler(data); err != nil {
				log.Printf("Error processing message: %v", err)
			}
		default:
			return
		}
	}
}

func (q *ChannelQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}

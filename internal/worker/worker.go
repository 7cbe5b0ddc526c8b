package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/abeer-rozba/vr-therapy-server/core/pipeline"
	"github.com/abeer-rozba/vr-therapy-server/internal/broker"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// Worker drains bulk ingestion batches from the message queue into the
// pipeline. Each envelope is one pipeline unit; the queue and workers add no
// atomicity of their own.
type Worker struct {
	pipeline    *pipeline.Pipeline
	workerCount int
	queueDepth  int
}

func New(p *pipeline.Pipeline, workerCount, queueDepth int) *Worker {
	return &Worker{
		pipeline:    p,
		workerCount: workerCount,
		queueDepth:  queueDepth,
	}
}

// Start consumes the queue until the context is cancelled, fanning envelopes
// out to the worker goroutines. It returns after all in-flight envelopes
// have been processed.
func (w *Worker) Start(ctx context.Context, mq broker.MessageQueue) error {
	jobs := make(chan domain.Envelope, w.queueDepth)

	var wg sync.WaitGroup
	for i := 0; i < w.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.run(ctx, workerID, jobs)
		}(i)
	}

	handler := func(data []byte) error {
		var batch domain.BulkEnvelope
		if err := json.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("failed to unmarshal batch: %w", err)
		}
		for _, env := range batch.Envelopes {
			select {
			case jobs <- env:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	err := mq.Consume(ctx, handler)
	close(jobs)
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) run(ctx context.Context, workerID int, jobs <-chan domain.Envelope) {
	log.Printf("Worker %d started", workerID)
	defer log.Printf("Worker %d stopped", workerID)

	for env := range jobs {
		res, err := w.pipeline.Submit(ctx, env)
		if err != nil {
			log.Printf("Worker %d: ingestion failed for session %s: %v", workerID, env.SessionID, err)
			continue
		}
		if !res.Accepted {
			log.Printf("Worker %d: envelope rejected: %s", workerID, res.Error)
		}
	}
}

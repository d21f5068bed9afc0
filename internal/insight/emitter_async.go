package insight

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AsyncEmitter decouples emission from the request path: events are queued
// onto a buffered channel and delivered by a background worker. When the
// buffer is full the event is dropped with a log line rather than blocking a
// transfer.
type AsyncEmitter struct {
	next   Emitter
	queue  chan TransferCompletedEvent
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// emitTimeout bounds a single downstream delivery inside the worker.
const emitTimeout = 10 * time.Second

func NewAsyncEmitter(next Emitter, buffer int, logger *slog.Logger) *AsyncEmitter {
	e := &AsyncEmitter{
		next:   next,
		queue:  make(chan TransferCompletedEvent, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *AsyncEmitter) EmitTransferCompleted(ctx context.Context, ev TransferCompletedEvent) error {
	select {
	case e.queue <- ev:
		return nil
	default:
		e.logger.WarnContext(ctx, "insight queue full, dropping event", "transfer_id", ev.TransferID)
		return nil
	}
}

func (e *AsyncEmitter) run() {
	defer close(e.done)
	for ev := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		if err := e.next.EmitTransferCompleted(ctx, ev); err != nil {
			e.logger.Error("insight delivery failed", "transfer_id", ev.TransferID, "error", err)
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queue to drain.
func (e *AsyncEmitter) Close() {
	e.closeOnce.Do(func() {
		close(e.queue)
	})
	<-e.done
}

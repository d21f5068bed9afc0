package insight

import (
	"context"
	"sync"
)

// MemoryEmitter collects events in memory. Used in tests and when no broker
// is configured.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []TransferCompletedEvent
}

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (m *MemoryEmitter) EmitTransferCompleted(_ context.Context, ev TransferCompletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (m *MemoryEmitter) Events() []TransferCompletedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransferCompletedEvent, len(m.events))
	copy(out, m.events)
	return out
}

package insight

import "context"

// Emitter delivers transfer-completed events to a sink.
type Emitter interface {
	EmitTransferCompleted(ctx context.Context, ev TransferCompletedEvent) error
}

// MultiEmitter fans one event out to several sinks. Every sink is attempted;
// the first error is returned.
type MultiEmitter []Emitter

func (m MultiEmitter) EmitTransferCompleted(ctx context.Context, ev TransferCompletedEvent) error {
	var first error
	for _, e := range m {
		if err := e.EmitTransferCompleted(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Event sink contract shared by all workflow services.
package services

import (
	"context"

	"github.com/skillswap/swap-backend/internal/domain"
)

// EventSink receives the domain events produced by a lifecycle operation
// after its state mutation has been persisted. Implementations are
// fire-and-forget: they must never fail the calling operation, and delivery
// is best-effort (a crash between mutation and emission loses the event).
type EventSink interface {
	Emit(ctx context.Context, events ...domain.Event)
}

// discardSink drops all events. Used as a default so services remain usable
// without a notification backend, e.g. in tests that only exercise guards.
type discardSink struct{}

func (discardSink) Emit(context.Context, ...domain.Event) {}

// sinkOrDiscard returns the given sink, or a discarding one when nil.
func sinkOrDiscard(s EventSink) EventSink {
	if s == nil {
		return discardSink{}
	}
	return s
}

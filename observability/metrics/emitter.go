package metrics

import (
	"github.com/TheOnma/async-swap-hook/core/events"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
)

// Recorder translates hook events into prometheus counters. It satisfies the
// events.Emitter interface so it can be chained behind the engine.
type Recorder struct {
	metrics *AsyncSwapMetrics
	next    events.Emitter
}

// NewRecorder wraps the optional next emitter with metric recording.
func NewRecorder(next events.Emitter) *Recorder {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Recorder{metrics: AsyncSwap(), next: next}
}

// Emit implements events.Emitter.
func (r *Recorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	switch evt.EventType() {
	case asyncswap.EventTypeSwapPaused:
		r.metrics.ObserveIntercepted()
	case asyncswap.EventTypeSwapExecuted:
		r.metrics.ObserveExecuted()
	case asyncswap.EventTypeSwapCancelled:
		r.metrics.ObserveCancelled()
	}
	r.next.Emit(evt)
}

package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples event producers from sink latency: Emit enqueues,
// a single worker goroutine delivers. A nil Dispatcher is valid and silently
// drops everything, so callers never branch on enablement.
type Dispatcher struct {
	sink       Sink
	events     chan Event
	dropIfFull bool

	dropped atomic.Uint64

	// mu protects closed and the close of the events channel; Emit holds the
	// read side so no send can race the close.
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		events:     make(chan Event, cfg.BufferSize),
		dropIfFull: cfg.DropIfFull,
		done:       make(chan struct{}),
	}
	go d.deliver()
	return d
}

// deliver runs until the events channel is closed and fully drained.
func (d *Dispatcher) deliver() {
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
	close(d.done)
}

// Emit enqueues an event for delivery. With DropIfFull set it never blocks;
// otherwise it waits for buffer space or context cancellation.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}

// Close stops intake, waits for buffered events to reach the sink, and
// returns. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	<-d.done
}

// Dropped reports how many events were discarded under backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

package events

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultBufferSize = 1024

var (
	ErrBufferFull = errors.New("events: publish buffer full")
	ErrClosed     = errors.New("events: publisher closed")
)

// Buffered hands events to a single background goroutine that forwards them
// to next in the order they were accepted. Publish never waits on the
// broker; when the buffer is full the event is dropped and ErrBufferFull is
// returned.
type Buffered struct {
	next Publisher
	log  logrus.FieldLogger

	mu      sync.RWMutex
	closed  bool
	pending chan LedgerChanged
	drained chan struct{}
}

func NewBuffered(next Publisher, size int, log logrus.FieldLogger) *Buffered {
	if size < 1 {
		size = defaultBufferSize
	}
	b := &Buffered{
		next:    next,
		log:     log,
		pending: make(chan LedgerChanged, size),
		drained: make(chan struct{}),
	}
	go b.forward()
	return b
}

func (b *Buffered) Publish(_ context.Context, event LedgerChanged) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.pending <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

func (b *Buffered) forward() {
	defer close(b.drained)
	for event := range b.pending {
		if err := b.next.Publish(context.Background(), event); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"budgetID":  event.BudgetID,
				"operation": event.Operation,
			}).Warn("Events.Forward.Error")
		}
	}
}

// Close stops accepting events, forwards everything already accepted, then
// closes next.
func (b *Buffered) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.pending)
	b.mu.Unlock()

	<-b.drained
	return b.next.Close()
}

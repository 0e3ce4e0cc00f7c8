package operator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/budget-ledger/internal/events"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

const defaultQueueSize = 1000

var ErrStopped = errors.New("operator delegator stopped")

// OperatorDelegator owns one Operator per budget, started on the budget's
// first action and retired after idleTimeout without work. Actions for one
// budget run one after another; different budgets run concurrently. Actions
// that create a budget go to the queue of uuid.Nil.
type OperatorDelegator struct {
	store       storage.Store
	publisher   events.Publisher
	log         logrus.FieldLogger
	queueSize   int
	idleTimeout time.Duration

	mu        sync.Mutex
	operators map[uuid.UUID]*operatorSlot
	wg        sync.WaitGroup
	stopOnce  sync.Once
	done      chan struct{}
	exited    chan struct{}
}

// operatorSlot is a running operator's queue. senders counts callers that
// hold the queue but have not finished sending; an operator retires only
// when that count is zero and the queue is empty. Guarded by the
// delegator's mu.
type operatorSlot struct {
	queue   chan ActionItem
	senders int
}

// NewOperatorDelegator starts no operators until the first action. A
// non-positive idleTimeout keeps operators for the life of the delegator.
func NewOperatorDelegator(s storage.Store, publisher events.Publisher, log logrus.FieldLogger, queueSize int, idleTimeout time.Duration) *OperatorDelegator {
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	return &OperatorDelegator{
		store:       s,
		publisher:   publisher,
		log:         log,
		queueSize:   queueSize,
		idleTimeout: idleTimeout,
		operators:   make(map[uuid.UUID]*operatorSlot),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
	}
}

// acquire returns the budget's queue, starting an operator if none is
// running. The caller must call release once its send is finished.
func (d *OperatorDelegator) acquire(budgetID uuid.UUID) (*operatorSlot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.done:
		return nil, ErrStopped
	default:
	}
	if slot, ok := d.operators[budgetID]; ok {
		slot.senders++
		return slot, nil
	}

	slot := &operatorSlot{queue: make(chan ActionItem, d.queueSize), senders: 1}
	d.operators[budgetID] = slot
	op := NewOperator(budgetID, d.store, d.publisher, d.log, slot.queue)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		op.Run(d.done, d.idleTimeout, func() bool { return d.retire(budgetID, slot) })
	}()
	return slot, nil
}

func (d *OperatorDelegator) release(slot *operatorSlot) {
	d.mu.Lock()
	slot.senders--
	d.mu.Unlock()
}

// retire removes the budget's operator if nothing is queued or about to be.
// Only the operator itself receives from its queue, so once this returns
// true no item can be left behind.
func (d *OperatorDelegator) retire(budgetID uuid.UUID, slot *operatorSlot) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot.senders > 0 || len(slot.queue) > 0 {
		return false
	}
	if d.operators[budgetID] == slot {
		delete(d.operators, budgetID)
	}
	return true
}

// Running reports how many budgets currently have an operator.
func (d *OperatorDelegator) Running() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.operators)
}

// Stop lets every operator drain its queue, then waits for all of them.
func (d *OperatorDelegator) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		close(d.done)
		d.mu.Unlock()
		d.wg.Wait()
		close(d.exited)
	})
}

// Process queues action on the budget's operator and waits for its result.
func (d *OperatorDelegator) Process(ctx context.Context, budgetID uuid.UUID, action actions.IAction) error {
	slot, err := d.acquire(budgetID)
	if err != nil {
		return err
	}

	respCh := make(chan ActionItemResponse, 1)
	item := ActionItem{
		ctx:      ctx,
		action:   action,
		response: respCh,
	}

	select {
	case slot.queue <- item:
		d.release(slot)
	case <-d.done:
		d.release(slot)
		return ErrStopped
	case <-ctx.Done():
		d.release(slot)
		return ctx.Err()
	}

	select {
	case resp := <-respCh:
		return resp.err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.exited:
		// The operator may have answered on its way out.
		select {
		case resp := <-respCh:
			return resp.err
		default:
			return ErrStopped
		}
	}
}

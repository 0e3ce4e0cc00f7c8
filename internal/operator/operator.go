package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/budget-ledger/internal/events"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Operator is the worker that processes one budget's queue, one action at a
// time.
type Operator struct {
	budgetID  uuid.UUID
	store     storage.Store
	publisher events.Publisher
	log       logrus.FieldLogger
	queue     chan ActionItem
}

func NewOperator(budgetID uuid.UUID, s storage.Store, publisher events.Publisher, log logrus.FieldLogger, queue chan ActionItem) *Operator {
	return &Operator{
		budgetID:  budgetID,
		store:     s,
		publisher: publisher,
		log:       log,
		queue:     queue,
	}
}

// Run listens to the queue and processes items. Once done is closed it
// finishes whatever is already queued and exits. After idle with an empty
// queue it calls retire and exits if retire agrees; a zero idle never
// retires.
func (o *Operator) Run(done <-chan struct{}, idle time.Duration, retire func() bool) {
	var idleC <-chan time.Time
	var timer *time.Timer
	if idle > 0 && retire != nil {
		timer = time.NewTimer(idle)
		defer timer.Stop()
		idleC = timer.C
	}
	for {
		select {
		case item := <-o.queue:
			o.processItem(item)
			if timer != nil {
				timer.Reset(idle)
			}
		case <-idleC:
			if retire() {
				o.log.WithField("budgetID", o.budgetID).Debug("Operator.Retired")
				return
			}
			timer.Reset(idle)
		case <-done:
			for {
				select {
				case item := <-o.queue:
					o.processItem(item)
				default:
					return
				}
			}
		}
	}
}

func (o *Operator) processItem(item ActionItem) {
	start := time.Now()
	err := o.perform(item)

	entry := o.log.WithFields(logrus.Fields{
		"budgetID":   o.budgetID,
		"durationMs": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Errorf("Operator.%s.Error", item.action.Name())
	} else {
		entry.Infof("Operator.%s.Complete", item.action.Name())
	}
	item.response <- ActionItemResponse{err: err}
}

// perform runs the action in a store transaction and commits it. Any error,
// including a panic in the action, rolls the transaction back.
func (o *Operator) perform(item ActionItem) (err error) {
	if err := item.ctx.Err(); err != nil {
		return err
	}
	writer, err := o.store.Begin(item.ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", item.action.Name(), r)
		}
		if !committed {
			if rbErr := writer.Rollback(item.ctx); rbErr != nil {
				o.log.WithError(rbErr).Warn("Operator.Rollback.Error")
			}
		}
	}()

	if err = item.action.Perform(item.ctx, writer); err != nil {
		return err
	}
	if err = writer.Commit(item.ctx); err != nil {
		committed = true
		return err
	}
	committed = true

	o.publish(item)
	return nil
}

func (o *Operator) publish(item ActionItem) {
	if o.publisher == nil {
		return
	}
	action, ok := item.action.(actions.Effectful)
	if !ok || action.LedgerEffects() == nil {
		return
	}
	event := events.NewLedgerChanged(o.budgetID, item.action.Name(), action.LedgerEffects())
	if err := o.publisher.Publish(context.WithoutCancel(item.ctx), event); err != nil {
		o.log.WithError(err).WithField("budgetID", o.budgetID).Warn("Operator.Publish.Error")
	}
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}

// Package events announces committed ledger mutations to other systems.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
)

type Invalidation struct {
	CategoryID uuid.UUID   `json:"categoryId"`
	FromMonth  month.Month `json:"fromMonth"`
}

// LedgerChanged is published after a mutation commits.
type LedgerChanged struct {
	BudgetID          uuid.UUID      `json:"budgetId"`
	Operation         string         `json:"operation"`
	Invalidated       []Invalidation `json:"invalidated"`
	ToBeBudgetedDelta money.Money    `json:"toBeBudgetedDelta"`
	Timestamp         time.Time      `json:"timestamp"`
}

// NewLedgerChanged summarizes the effects of one committed mutation. Nil
// effects produce an event with no invalidations.
func NewLedgerChanged(budgetID uuid.UUID, operation string, eff *ledger.Effects) LedgerChanged {
	ev := LedgerChanged{
		BudgetID:    budgetID,
		Operation:   operation,
		Invalidated: []Invalidation{},
		Timestamp:   time.Now().UTC(),
	}
	if eff == nil {
		return ev
	}
	ev.ToBeBudgetedDelta = eff.ToBeBudgetedDelta
	for id, m := range eff.Invalidated {
		ev.Invalidated = append(ev.Invalidated, Invalidation{CategoryID: id, FromMonth: m})
	}
	return ev
}

func (e LedgerChanged) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event LedgerChanged) error
	Close() error
}

// LogPublisher writes events to the log. It is the publisher used when no
// broker is configured.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event LedgerChanged) error {
	p.log.WithFields(logrus.Fields{
		"budgetID":          event.BudgetID,
		"operation":         event.Operation,
		"invalidated":       len(event.Invalidated),
		"toBeBudgetedDelta": event.ToBeBudgetedDelta.MinorUnits(),
	}).Info("Events.LedgerChanged")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Processor applies mutations to a budget inside a store transaction. Every
// mutation is validated in full before its first write, so a failed call
// leaves nothing behind for the caller to roll back except its own
// transaction.
type Processor struct {
	engine *Engine
}

func NewProcessor(engine *Engine) *Processor {
	return &Processor{engine: engine}
}

func (p *Processor) Engine() *Engine {
	return p.engine
}

// NewTransaction is one transaction to create. A nil ID is generated.
type NewTransaction struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	PayeeID    *uuid.UUID
	Amount     money.Money
	Date       time.Time
	Memo       string
}

// TransactionUpdate replaces every mutable field of an existing transaction.
type TransactionUpdate struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	PayeeID    *uuid.UUID
	Amount     money.Money
	Date       time.Time
	Memo       string
}

func invalidItem(i int, format string, args ...any) error {
	return fmt.Errorf("%w: item %d: %s", ErrInvalidInput, i, fmt.Sprintf(format, args...))
}

func itemError(i int, err error) error {
	return fmt.Errorf("item %d: %w", i, err)
}

func (p *Processor) CreateTransaction(ctx context.Context, w storage.Writer, budgetID uuid.UUID, item NewTransaction) (*storage.Transaction, *Effects, error) {
	rows, eff, err := p.CreateTransactions(ctx, w, budgetID, []NewTransaction{item})
	if err != nil {
		return nil, nil, err
	}
	return rows[0], eff, nil
}

// CreateTransactions inserts every item or none of them.
func (p *Processor) CreateTransactions(ctx context.Context, w storage.Writer, budgetID uuid.UUID, items []NewTransaction) ([]*storage.Transaction, *Effects, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, nil, err
	}
	v := newRefs(w, budgetID)
	eff := newEffects()
	rows := make([]*storage.Transaction, len(items))
	seen := make(map[uuid.UUID]bool, len(items))

	for i, item := range items {
		if item.Date.IsZero() {
			return nil, nil, invalidItem(i, "date is required")
		}
		if err := checkMonth("date", month.Of(item.Date)); err != nil {
			return nil, nil, itemError(i, err)
		}
		if err := v.transactionRefs(ctx, item.AccountID, item.CategoryID, item.PayeeID); err != nil {
			return nil, nil, itemError(i, err)
		}
		id := item.ID
		if id.IsNil() {
			var err error
			if id, err = uuid.NewV4(); err != nil {
				return nil, nil, err
			}
		} else {
			if seen[id] {
				return nil, nil, invalidItem(i, "transaction %s appears twice", id)
			}
			if _, err := w.Transaction(ctx, id); err == nil {
				return nil, nil, invalidItem(i, "transaction %s already exists", id)
			}
		}
		seen[id] = true

		row := &storage.Transaction{
			ID:         id,
			BudgetID:   budgetID,
			AccountID:  item.AccountID,
			CategoryID: storage.CloneUUID(item.CategoryID),
			PayeeID:    storage.CloneUUID(item.PayeeID),
			Amount:     item.Amount,
			Date:       item.Date.UTC(),
			Memo:       item.Memo,
		}
		if err := eff.addTransaction(row, false); err != nil {
			return nil, nil, itemError(i, err)
		}
		rows[i] = row
	}
	if err := eff.check(ctx, w, budgetID); err != nil {
		return nil, nil, err
	}

	for _, row := range rows {
		if err := w.InsertTransaction(ctx, row); err != nil {
			return nil, nil, err
		}
	}
	if err := eff.apply(ctx, p.engine, w, budgetID); err != nil {
		return nil, nil, err
	}
	return rows, eff, nil
}

func (p *Processor) UpdateTransaction(ctx context.Context, w storage.Writer, budgetID uuid.UUID, change TransactionUpdate) (*storage.Transaction, *Effects, error) {
	rows, eff, err := p.UpdateTransactions(ctx, w, budgetID, []TransactionUpdate{change})
	if err != nil {
		return nil, nil, err
	}
	return rows[0], eff, nil
}

// ledgerFieldsChanged reports whether an update moves money between accounts,
// categories or months. Payee and memo edits do not.
func ledgerFieldsChanged(old, updated *storage.Transaction) bool {
	return old.Amount != updated.Amount ||
		old.AccountID != updated.AccountID ||
		!storage.SameUUID(old.CategoryID, updated.CategoryID) ||
		old.Month() != updated.Month()
}

// UpdateTransactions applies every change or none of them. Each change is
// booked as the reversal of the stored transaction plus the new one.
func (p *Processor) UpdateTransactions(ctx context.Context, w storage.Writer, budgetID uuid.UUID, changes []TransactionUpdate) ([]*storage.Transaction, *Effects, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, nil, err
	}
	v := newRefs(w, budgetID)
	eff := newEffects()
	rows := make([]*storage.Transaction, len(changes))
	seen := make(map[uuid.UUID]bool, len(changes))

	for i, change := range changes {
		if seen[change.ID] {
			return nil, nil, invalidItem(i, "transaction %s appears twice", change.ID)
		}
		seen[change.ID] = true
		if change.Date.IsZero() {
			return nil, nil, invalidItem(i, "date is required")
		}
		if err := checkMonth("date", month.Of(change.Date)); err != nil {
			return nil, nil, itemError(i, err)
		}

		old, err := w.Transaction(ctx, change.ID)
		if err != nil {
			return nil, nil, itemError(i, unknown("transaction", change.ID, err))
		}
		if old.BudgetID != budgetID {
			return nil, nil, itemError(i, crossBudget("transaction", change.ID, budgetID))
		}
		if err := v.transactionRefs(ctx, change.AccountID, change.CategoryID, change.PayeeID); err != nil {
			return nil, nil, itemError(i, err)
		}

		updated := &storage.Transaction{
			ID:         old.ID,
			BudgetID:   old.BudgetID,
			AccountID:  change.AccountID,
			CategoryID: storage.CloneUUID(change.CategoryID),
			PayeeID:    storage.CloneUUID(change.PayeeID),
			Amount:     change.Amount,
			Date:       change.Date.UTC(),
			Memo:       change.Memo,
			CreatedAt:  old.CreatedAt,
		}
		if ledgerFieldsChanged(old, updated) {
			if err := eff.addTransaction(old, true); err != nil {
				return nil, nil, itemError(i, err)
			}
			if err := eff.addTransaction(updated, false); err != nil {
				return nil, nil, itemError(i, err)
			}
		}
		rows[i] = updated
	}
	if err := eff.check(ctx, w, budgetID); err != nil {
		return nil, nil, err
	}

	for _, row := range rows {
		if err := w.UpdateTransaction(ctx, row); err != nil {
			return nil, nil, err
		}
	}
	if err := eff.apply(ctx, p.engine, w, budgetID); err != nil {
		return nil, nil, err
	}
	return rows, eff, nil
}

func (p *Processor) DeleteTransaction(ctx context.Context, w storage.Writer, budgetID, id uuid.UUID) (*Effects, error) {
	return p.DeleteTransactions(ctx, w, budgetID, []uuid.UUID{id})
}

// DeleteTransactions removes every listed transaction or none of them.
func (p *Processor) DeleteTransactions(ctx context.Context, w storage.Writer, budgetID uuid.UUID, ids []uuid.UUID) (*Effects, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	eff := newEffects()
	seen := make(map[uuid.UUID]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			return nil, invalidItem(i, "transaction %s appears twice", id)
		}
		seen[id] = true
		old, err := w.Transaction(ctx, id)
		if err != nil {
			return nil, itemError(i, unknown("transaction", id, err))
		}
		if old.BudgetID != budgetID {
			return nil, itemError(i, crossBudget("transaction", id, budgetID))
		}
		if err := eff.addTransaction(old, true); err != nil {
			return nil, itemError(i, err)
		}
	}
	if err := eff.check(ctx, w, budgetID); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if err := w.DeleteTransaction(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := eff.apply(ctx, p.engine, w, budgetID); err != nil {
		return nil, err
	}
	return eff, nil
}

// SetCategoryAssignment budgets amount to the category for m. The difference
// to the previous assignment comes out of To Be Budgeted.
func (p *Processor) SetCategoryAssignment(ctx context.Context, w storage.Writer, budgetID, categoryID uuid.UUID, m month.Month, amount money.Money) (*Effects, error) {
	if err := checkMonth("month", m); err != nil {
		return nil, err
	}
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	if _, err := newRefs(w, budgetID).category(ctx, categoryID); err != nil {
		return nil, err
	}
	old, _, err := w.CategoryAssignment(ctx, categoryID, m)
	if err != nil {
		return nil, err
	}
	released, err := old.Sub(amount)
	if err != nil {
		return nil, err
	}

	eff := newEffects()
	eff.ToBeBudgetedDelta = released
	eff.invalidate(categoryID, m)
	if err := eff.check(ctx, w, budgetID); err != nil {
		return nil, err
	}

	if err := w.SetCategoryAssignment(ctx, categoryID, m, amount); err != nil {
		return nil, err
	}
	if err := eff.apply(ctx, p.engine, w, budgetID); err != nil {
		return nil, err
	}
	return eff, nil
}

// DeleteCategory removes a category. Its transactions move to reassignTo, or
// become unbudgeted when reassignTo is nil. Its assignments are merged into
// reassignTo month by month, or released to To Be Budgeted. Account balances
// do not change.
func (p *Processor) DeleteCategory(ctx context.Context, w storage.Writer, budgetID, categoryID uuid.UUID, reassignTo *uuid.UUID) (*Effects, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	v := newRefs(w, budgetID)
	if _, err := v.category(ctx, categoryID); err != nil {
		return nil, err
	}
	if reassignTo != nil {
		if *reassignTo == categoryID {
			return nil, fmt.Errorf("%w: category %s cannot be reassigned to itself", ErrInvalidInput, categoryID)
		}
		if _, err := v.category(ctx, *reassignTo); err != nil {
			return nil, err
		}
	}

	transactions, err := w.TransactionsForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	assignments, err := w.AssignmentsForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	eff := newEffects()
	var (
		earliest *month.Month
		moved    money.Money
		merged   []storage.Assignment
	)
	touch := func(m month.Month) {
		if earliest == nil || m.Before(*earliest) {
			earliest = &m
		}
	}
	for _, t := range transactions {
		touch(t.Month())
		if moved, err = moved.Add(t.Amount); err != nil {
			return nil, err
		}
	}
	for _, a := range assignments {
		touch(a.Month)
		if reassignTo == nil {
			if err := eff.adjustToBeBudgeted(a.Amount); err != nil {
				return nil, err
			}
			continue
		}
		existing, _, err := w.CategoryAssignment(ctx, *reassignTo, a.Month)
		if err != nil {
			return nil, err
		}
		sum, err := existing.Add(a.Amount)
		if err != nil {
			return nil, err
		}
		merged = append(merged, storage.Assignment{CategoryID: *reassignTo, Month: a.Month, Amount: sum})
	}
	if reassignTo == nil {
		if err := eff.adjustToBeBudgeted(moved); err != nil {
			return nil, err
		}
	}
	if earliest != nil {
		eff.invalidate(categoryID, *earliest)
		eff.dropped[categoryID] = true
		if reassignTo != nil {
			eff.invalidate(*reassignTo, *earliest)
		}
	}
	if err := eff.check(ctx, w, budgetID); err != nil {
		return nil, err
	}

	if err := w.ReassignCategoryTransactions(ctx, categoryID, reassignTo); err != nil {
		return nil, err
	}
	for _, a := range merged {
		if err := w.SetCategoryAssignment(ctx, a.CategoryID, a.Month, a.Amount); err != nil {
			return nil, err
		}
	}
	if err := w.DeleteAssignmentsForCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	if err := eff.apply(ctx, p.engine, w, budgetID); err != nil {
		return nil, err
	}
	if err := w.DeleteCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	return eff, nil
}

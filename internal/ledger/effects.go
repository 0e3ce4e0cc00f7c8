package ledger

import (
	"bytes"
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Effects is the ledger impact of one mutation: what it does to account
// balances, to To Be Budgeted and to category balance chains. It is built
// completely before anything is written and applied once.
type Effects struct {
	AccountDeltas     map[uuid.UUID]money.Money
	ToBeBudgetedDelta money.Money
	// Invalidated holds, per touched category, the earliest month whose
	// balance changed.
	Invalidated map[uuid.UUID]month.Month

	// dropped categories are invalidated but never re-swept.
	dropped map[uuid.UUID]bool
}

func newEffects() *Effects {
	return &Effects{
		AccountDeltas: make(map[uuid.UUID]money.Money),
		Invalidated:   make(map[uuid.UUID]month.Month),
		dropped:       make(map[uuid.UUID]bool),
	}
}

// Empty reports whether applying the effects would change nothing.
func (e *Effects) Empty() bool {
	return len(e.AccountDeltas) == 0 && e.ToBeBudgetedDelta.IsZero() && len(e.Invalidated) == 0
}

func (e *Effects) invalidate(categoryID uuid.UUID, m month.Month) {
	if cur, ok := e.Invalidated[categoryID]; ok {
		m = month.Earliest(cur, m)
	}
	e.Invalidated[categoryID] = m
}

func (e *Effects) adjustAccount(accountID uuid.UUID, delta money.Money) error {
	sum, err := e.AccountDeltas[accountID].Add(delta)
	if err != nil {
		return err
	}
	e.AccountDeltas[accountID] = sum
	return nil
}

func (e *Effects) adjustToBeBudgeted(delta money.Money) error {
	sum, err := e.ToBeBudgetedDelta.Add(delta)
	if err != nil {
		return err
	}
	e.ToBeBudgetedDelta = sum
	return nil
}

// addTransaction folds a transaction in, or reverses it when reverse is set.
func (e *Effects) addTransaction(t *storage.Transaction, reverse bool) error {
	amount := t.Amount
	if reverse {
		var err error
		if amount, err = amount.Neg(); err != nil {
			return err
		}
	}
	if err := e.adjustAccount(t.AccountID, amount); err != nil {
		return err
	}
	if t.IsUnbudgeted() {
		return e.adjustToBeBudgeted(amount)
	}
	e.invalidate(*t.CategoryID, t.Month())
	return nil
}

func sortedIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

// check verifies that the balances the effects touch stay representable, so
// an overflow is reported before any row is written.
func (e *Effects) check(ctx context.Context, r storage.Reader, budgetID uuid.UUID) error {
	for _, id := range sortedIDs(e.AccountDeltas) {
		a, err := r.Account(ctx, id)
		if err != nil {
			return unknown("account", id, err)
		}
		if _, err := a.Balance.Add(e.AccountDeltas[id]); err != nil {
			return err
		}
	}
	if e.ToBeBudgetedDelta.IsZero() {
		return nil
	}
	b, err := lookupBudget(ctx, r, budgetID)
	if err != nil {
		return err
	}
	_, err = b.ToBeBudgeted.Add(e.ToBeBudgetedDelta)
	return err
}

// apply writes the effects: one adjustment per account, one To Be Budgeted
// adjustment, one invalidation per category at its earliest month. Each
// category is then re-swept up to the month it was fresh through before, so
// months already materialized stay fresh once the transaction commits.
func (e *Effects) apply(ctx context.Context, engine *Engine, w storage.Writer, budgetID uuid.UUID) error {
	categories := sortedIDs(e.Invalidated)

	horizons := make(map[uuid.UUID]month.Month, len(categories))
	for _, id := range categories {
		if e.dropped[id] {
			continue
		}
		st, err := w.CacheState(ctx, id)
		if err != nil {
			return err
		}
		if st.FreshThrough != nil {
			horizons[id] = *st.FreshThrough
		}
	}

	for _, id := range sortedIDs(e.AccountDeltas) {
		if delta := e.AccountDeltas[id]; !delta.IsZero() {
			if err := w.AdjustAccountBalance(ctx, id, delta); err != nil {
				return err
			}
		}
	}
	if !e.ToBeBudgetedDelta.IsZero() {
		if err := w.AdjustToBeBudgeted(ctx, budgetID, e.ToBeBudgetedDelta); err != nil {
			return err
		}
	}

	for _, id := range categories {
		from := e.Invalidated[id]
		if !e.dropped[id] {
			c, err := lookupCategory(ctx, w, id)
			if err != nil {
				return err
			}
			if from.Before(c.FirstMonth) {
				if err := w.SetCategoryFirstMonth(ctx, id, from); err != nil {
					return err
				}
			}
		}
		if err := engine.InvalidateFrom(ctx, w, id, from); err != nil {
			return err
		}
	}

	for _, id := range categories {
		horizon, ok := horizons[id]
		if !ok || horizon.Before(e.Invalidated[id]) {
			continue
		}
		if _, err := engine.EnsureFresh(ctx, w, id, horizon); err != nil {
			return err
		}
	}
	return nil
}

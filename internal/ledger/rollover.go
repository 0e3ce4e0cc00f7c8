package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Engine projects category balances through the per-category balance cache.
// It holds no state of its own and is safe for concurrent use.
type Engine struct {
	log        logrus.FieldLogger
	newBackOff func() backoff.BackOff
}

func NewEngine(log logrus.FieldLogger) *Engine {
	return &Engine{
		log:        log,
		newBackOff: sweepBackOff,
	}
}

// sweepBackOff paces restarts of a sweep that lost a race with a commit. It
// only gives up when the caller's context does.
func sweepBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// EnsureFresh extends the category's fresh window through m, or through the
// category's last month with data when that comes first, computing each
// missing month from the one before it, and returns month m. Months before the
// category's first month project to zero.
//
// Write-backs are conditional on the cache epoch read at the start of the
// sweep. When a commit invalidates the category mid-sweep the write-back is
// rejected and the sweep starts over against the new state.
func (e *Engine) EnsureFresh(ctx context.Context, p storage.Projection, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, error) {
	months, err := e.ensureFresh(ctx, p, categoryID, m, m)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	return months[0], nil
}

func (e *Engine) ensureFresh(ctx context.Context, p storage.Projection, categoryID uuid.UUID, from, to month.Month) ([]storage.CategoryMonth, error) {
	var (
		result   []storage.CategoryMonth
		restarts int
	)
	op := func() error {
		months, err := e.sweep(ctx, p, categoryID, from, to)
		if errors.Is(err, storage.ErrStaleRead) {
			restarts++
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		result = months
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(e.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	if restarts > 0 {
		e.log.WithFields(logrus.Fields{
			"categoryID": categoryID,
			"from":       from.String(),
			"to":         to.String(),
			"restarts":   restarts,
		}).Debug("Rollover.EnsureFresh: sweep restarted after concurrent invalidation")
	}
	return result, nil
}

// sweep returns months from..to of the category's balance chain. It reads the
// cache state before the category: every commit that lowers FirstMonth or adds
// data also bumps the epoch, so anything read after the state is newer than
// the epoch is caught, either at write-back or by the final epoch check.
//
// Write-back stops at the category's horizon, the latest month holding any of
// its data. Later months repeat the horizon's balance with nothing budgeted and
// no activity, so they are derived without being cached.
func (e *Engine) sweep(ctx context.Context, p storage.Projection, categoryID uuid.UUID, from, to month.Month) ([]storage.CategoryMonth, error) {
	state, err := p.CacheState(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	category, err := lookupCategory(ctx, p, categoryID)
	if err != nil {
		return nil, err
	}
	out := make([]storage.CategoryMonth, to.Sub(from)+1)
	first := category.FirstMonth
	if to.Before(first) {
		return out, nil
	}
	horizon := first
	latest, ok, err := p.LatestCategoryMonth(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if ok && latest.After(horizon) {
		horizon = latest
	}
	target := month.Earliest(to, horizon)
	put := func(m month.Month, cm storage.CategoryMonth) {
		if !m.Before(from) && !m.After(to) {
			out[m.Sub(from)] = cm
		}
	}

	next, prior := first, money.Zero
	if through := state.FreshThrough; through != nil && !through.Before(first) {
		cachedTo := month.Earliest(*through, target)
		for m := month.Latest(from, first); m.Before(cachedTo); m = m.Next() {
			cm, err := cachedMonth(ctx, p, categoryID, m)
			if err != nil {
				return nil, err
			}
			put(m, cm)
		}
		last, err := cachedMonth(ctx, p, categoryID, cachedTo)
		if err != nil {
			return nil, err
		}
		put(cachedTo, last)
		next, prior = cachedTo.Next(), last.Balance
	}

	for m := next; !m.After(target); m = m.Next() {
		cm, err := projectMonth(ctx, p, categoryID, m, prior)
		if err != nil {
			return nil, err
		}
		if err := p.SetCachedCategoryMonth(ctx, categoryID, state.Epoch, m, cm); err != nil {
			return nil, err
		}
		put(m, cm)
		prior = cm.Balance
	}
	for m := month.Latest(target.Next(), from); !m.After(to); m = m.Next() {
		put(m, storage.CategoryMonth{Balance: prior})
	}

	after, err := p.CacheState(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if after.Epoch != state.Epoch {
		return nil, storage.ErrStaleRead
	}
	return out, nil
}

func cachedMonth(ctx context.Context, p storage.Projection, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, error) {
	cm, fresh, err := p.CachedCategoryMonth(ctx, categoryID, m)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	if !fresh {
		return storage.CategoryMonth{}, storage.ErrStaleRead
	}
	return cm, nil
}

// InvalidateFrom marks every cached month of the category from m onward as
// stale.
func (e *Engine) InvalidateFrom(ctx context.Context, w storage.Writer, categoryID uuid.UUID, m month.Month) error {
	return w.InvalidateCategoryFrom(ctx, categoryID, m)
}

// RecomputeBudgetToBeBudgeted derives To Be Budgeted from every unbudgeted
// transaction and every assignment in the budget.
func (e *Engine) RecomputeBudgetToBeBudgeted(ctx context.Context, r storage.Reader, budgetID uuid.UUID) (money.Money, error) {
	return toBeBudgetedThrough(ctx, r, budgetID, nil)
}

func toBeBudgetedThrough(ctx context.Context, r storage.Reader, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	income, err := r.SumUnbudgetedTransactions(ctx, budgetID, upto)
	if err != nil {
		return money.Zero, err
	}
	assigned, err := r.SumAssignments(ctx, budgetID, upto)
	if err != nil {
		return money.Zero, err
	}
	return income.Sub(assigned)
}

// ToBeBudgetedCheck compares the stored To Be Budgeted with a recomputation.
type ToBeBudgetedCheck struct {
	BudgetID   uuid.UUID
	Stored     money.Money
	Recomputed money.Money
}

func (c ToBeBudgetedCheck) Consistent() bool {
	return c.Stored == c.Recomputed
}

// VerifyToBeBudgeted recomputes the budget's To Be Budgeted and reports it
// next to the stored value.
func (e *Engine) VerifyToBeBudgeted(ctx context.Context, r storage.Reader, budgetID uuid.UUID) (ToBeBudgetedCheck, error) {
	budget, err := lookupBudget(ctx, r, budgetID)
	if err != nil {
		return ToBeBudgetedCheck{}, err
	}
	recomputed, err := e.RecomputeBudgetToBeBudgeted(ctx, r, budgetID)
	if err != nil {
		return ToBeBudgetedCheck{}, err
	}
	return ToBeBudgetedCheck{BudgetID: budgetID, Stored: budget.ToBeBudgeted, Recomputed: recomputed}, nil
}

// RepairToBeBudgeted overwrites the stored To Be Budgeted with a
// recomputation when the two disagree.
func (e *Engine) RepairToBeBudgeted(ctx context.Context, w storage.Writer, budgetID uuid.UUID) (ToBeBudgetedCheck, error) {
	check, err := e.VerifyToBeBudgeted(ctx, w, budgetID)
	if err != nil {
		return check, err
	}
	if check.Consistent() {
		return check, nil
	}
	e.log.WithFields(logrus.Fields{
		"budgetID":   budgetID,
		"stored":     check.Stored.MinorUnits(),
		"recomputed": check.Recomputed.MinorUnits(),
	}).Warn("Rollover.RepairToBeBudgeted: stored value drifted, overwriting")
	return check, w.SetToBeBudgeted(ctx, budgetID, check.Recomputed)
}

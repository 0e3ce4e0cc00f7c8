package ledger

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// projectMonth combines one month's assignment and activity with the balance
// carried in from the month before. A negative prior balance is carried as is.
func projectMonth(ctx context.Context, r storage.Reader, categoryID uuid.UUID, m month.Month, prior money.Money) (storage.CategoryMonth, error) {
	budgeted, _, err := r.CategoryAssignment(ctx, categoryID, m)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	activity, err := r.SumTransactionsForCategoryMonth(ctx, categoryID, m)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	balance, err := money.Sum(prior, budgeted, activity)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	return storage.CategoryMonth{Budgeted: budgeted, Activity: activity, Balance: balance}, nil
}

// RecomputeCategoryMonth derives a category month from the category's full
// assignment and transaction history. It never reads or writes the balance
// cache and never uses the per-month sum queries, so it can be used to check
// the cached path.
func (e *Engine) RecomputeCategoryMonth(ctx context.Context, r storage.Reader, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, error) {
	category, err := lookupCategory(ctx, r, categoryID)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	if m.Before(category.FirstMonth) {
		return storage.CategoryMonth{}, nil
	}

	assignments, err := r.AssignmentsForCategory(ctx, categoryID)
	if err != nil {
		return storage.CategoryMonth{}, err
	}
	transactions, err := r.TransactionsForCategory(ctx, categoryID)
	if err != nil {
		return storage.CategoryMonth{}, err
	}

	span := m.Sub(category.FirstMonth) + 1
	budgeted := make([]money.Money, span)
	activity := make([]money.Money, span)
	for _, a := range assignments {
		if idx := a.Month.Sub(category.FirstMonth); idx >= 0 && idx < span {
			budgeted[idx] = a.Amount
		}
	}
	for _, t := range transactions {
		idx := t.Month().Sub(category.FirstMonth)
		if idx < 0 || idx >= span {
			continue
		}
		if activity[idx], err = activity[idx].Add(t.Amount); err != nil {
			return storage.CategoryMonth{}, err
		}
	}

	var cm storage.CategoryMonth
	for i := 0; i < span; i++ {
		balance, err := money.Sum(cm.Balance, budgeted[i], activity[i])
		if err != nil {
			return storage.CategoryMonth{}, err
		}
		cm = storage.CategoryMonth{Budgeted: budgeted[i], Activity: activity[i], Balance: balance}
	}
	return cm, nil
}

// ProjectCategoryMonth returns {budgeted, activity, balance} for a category
// in a month, served from the balance cache and refreshed as needed.
func (e *Engine) ProjectCategoryMonth(ctx context.Context, p storage.Projection, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, error) {
	return e.EnsureFresh(ctx, p, categoryID, m)
}

// MaxRangeMonths bounds the months one range projection returns.
const MaxRangeMonths = 60

func checkRange(from, to month.Month) error {
	if err := checkMonth("from", from); err != nil {
		return err
	}
	if err := checkMonth("to", to); err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("%w: range %s..%s ends before it starts", ErrInvalidInput, from, to)
	}
	if n := to.Sub(from) + 1; n > MaxRangeMonths {
		return fmt.Errorf("%w: range %s..%s spans %d months, at most %d allowed", ErrInvalidInput, from, to, n, MaxRangeMonths)
	}
	return nil
}

// ProjectCategoryMonths returns months from..to of a category, all taken from
// one committed state.
func (e *Engine) ProjectCategoryMonths(ctx context.Context, p storage.Projection, categoryID uuid.UUID, from, to month.Month) ([]storage.CategoryMonth, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return e.ensureFresh(ctx, p, categoryID, from, to)
}

package ledger

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// CategoryMonthRow is one category's line in a BudgetMonth.
type CategoryMonthRow struct {
	CategoryID uuid.UUID
	GroupID    uuid.UUID
	Name       string
	Hidden     bool
	storage.CategoryMonth
}

// BudgetMonth is the whole budget as of one month.
type BudgetMonth struct {
	BudgetID uuid.UUID
	Month    month.Month
	// Income is the sum of unbudgeted transactions dated in the month.
	Income   money.Money
	Budgeted money.Money
	Activity money.Money
	Balance  money.Money
	// ToBeBudgeted is the budget-wide figure as of the end of the month.
	ToBeBudgeted money.Money
	Categories   []CategoryMonthRow
}

// ProjectBudgetMonth projects every category of the budget for m and totals
// them.
func (e *Engine) ProjectBudgetMonth(ctx context.Context, p storage.Projection, budgetID uuid.UUID, m month.Month) (*BudgetMonth, error) {
	months, err := e.projectBudgetMonths(ctx, p, budgetID, m, m)
	if err != nil {
		return nil, err
	}
	return months[0], nil
}

// ProjectBudgetMonths projects the budget for every month from..to. Each
// category's months come from one committed state; categories are projected
// independently of each other.
func (e *Engine) ProjectBudgetMonths(ctx context.Context, p storage.Projection, budgetID uuid.UUID, from, to month.Month) ([]*BudgetMonth, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return e.projectBudgetMonths(ctx, p, budgetID, from, to)
}

func (e *Engine) projectBudgetMonths(ctx context.Context, p storage.Projection, budgetID uuid.UUID, from, to month.Month) ([]*BudgetMonth, error) {
	if _, err := lookupBudget(ctx, p, budgetID); err != nil {
		return nil, err
	}
	categories, err := p.CategoriesForBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	out := make([]*BudgetMonth, to.Sub(from)+1)
	for i := range out {
		out[i] = &BudgetMonth{BudgetID: budgetID, Month: from.AddMonths(i), Categories: make([]CategoryMonthRow, 0, len(categories))}
	}
	for _, c := range categories {
		months, err := e.ensureFresh(ctx, p, c.ID, from, to)
		if err != nil {
			return nil, err
		}
		for i, cm := range months {
			if err := out[i].add(c, cm); err != nil {
				return nil, err
			}
		}
	}

	prev := from.Prev()
	before, err := p.SumUnbudgetedTransactions(ctx, budgetID, &prev)
	if err != nil {
		return nil, err
	}
	for _, bm := range out {
		m := bm.Month
		through, err := p.SumUnbudgetedTransactions(ctx, budgetID, &m)
		if err != nil {
			return nil, err
		}
		if bm.Income, err = through.Sub(before); err != nil {
			return nil, err
		}
		if bm.ToBeBudgeted, err = toBeBudgetedThrough(ctx, p, budgetID, &m); err != nil {
			return nil, err
		}
		before = through
	}
	return out, nil
}

func (bm *BudgetMonth) add(c *storage.Category, cm storage.CategoryMonth) error {
	bm.Categories = append(bm.Categories, CategoryMonthRow{
		CategoryID:    c.ID,
		GroupID:       c.GroupID,
		Name:          c.Name,
		Hidden:        c.Hidden,
		CategoryMonth: cm,
	})
	var err error
	if bm.Budgeted, err = bm.Budgeted.Add(cm.Budgeted); err != nil {
		return err
	}
	if bm.Activity, err = bm.Activity.Add(cm.Activity); err != nil {
		return err
	}
	bm.Balance, err = bm.Balance.Add(cm.Balance)
	return err
}

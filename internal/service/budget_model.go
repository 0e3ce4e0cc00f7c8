package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Budget represents a budget in the service layer.
type Budget struct {
	ID           uuid.UUID
	Name         string
	Currency     string
	ToBeBudgeted money.Money
	CreatedAt    time.Time
}

type Payee struct {
	ID       uuid.UUID
	BudgetID uuid.UUID
	Name     string
}

// CategoryMonth is a category's derived state for one month.
type CategoryMonth struct {
	CategoryID uuid.UUID
	Month      month.Month
	Budgeted   money.Money
	Activity   money.Money
	Balance    money.Money
}

// BudgetMonth is the whole budget as of one month.
type BudgetMonth struct {
	BudgetID     uuid.UUID
	Month        month.Month
	Income       money.Money
	Budgeted     money.Money
	Activity     money.Money
	Balance      money.Money
	ToBeBudgeted money.Money
	Categories   []BudgetMonthCategory
}

type BudgetMonthCategory struct {
	CategoryID uuid.UUID
	GroupID    uuid.UUID
	Name       string
	Hidden     bool
	Budgeted   money.Money
	Activity   money.Money
	Balance    money.Money
}

// ToBeBudgetedReport compares the maintained figure with a recomputation.
type ToBeBudgetedReport struct {
	BudgetID   uuid.UUID
	Stored     money.Money
	Recomputed money.Money
	Consistent bool
}

func budgetFromStorage(b *storage.Budget) Budget {
	return Budget{
		ID:           b.ID,
		Name:         b.Name,
		Currency:     b.Currency,
		ToBeBudgeted: b.ToBeBudgeted,
		CreatedAt:    b.CreatedAt,
	}
}

func budgetMonthFromLedger(bm *ledger.BudgetMonth) BudgetMonth {
	out := BudgetMonth{
		BudgetID:     bm.BudgetID,
		Month:        bm.Month,
		Income:       bm.Income,
		Budgeted:     bm.Budgeted,
		Activity:     bm.Activity,
		Balance:      bm.Balance,
		ToBeBudgeted: bm.ToBeBudgeted,
		Categories:   make([]BudgetMonthCategory, len(bm.Categories)),
	}
	for i, row := range bm.Categories {
		out.Categories[i] = BudgetMonthCategory{
			CategoryID: row.CategoryID,
			GroupID:    row.GroupID,
			Name:       row.Name,
			Hidden:     row.Hidden,
			Budgeted:   row.Budgeted,
			Activity:   row.Activity,
			Balance:    row.Balance,
		}
	}
	return out
}

func reportFromCheck(c ledger.ToBeBudgetedCheck) ToBeBudgetedReport {
	return ToBeBudgetedReport{
		BudgetID:   c.BudgetID,
		Stored:     c.Stored,
		Recomputed: c.Recomputed,
		Consistent: c.Consistent(),
	}
}

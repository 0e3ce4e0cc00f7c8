package budget

import (
	"time"

	"github.com/carson-networks/budget-ledger/internal/service"
)

// Budget is the API response model for a budget.
type Budget struct {
	ID           string `json:"id" doc:"Budget UUID"`
	Name         string `json:"name" doc:"Budget name"`
	Currency     string `json:"currency" doc:"ISO 4217 currency code"`
	ToBeBudgeted int64  `json:"toBeBudgeted" doc:"Money not yet assigned to a category, in minor units"`
	CreatedAt    string `json:"createdAt" doc:"RFC3339 creation time"`
}

type Payee struct {
	ID   string `json:"id" doc:"Payee UUID"`
	Name string `json:"name" doc:"Payee name"`
}

// CategoryMonth is one category's row in a budget month.
type CategoryMonth struct {
	CategoryID string `json:"categoryID" doc:"Category UUID"`
	GroupID    string `json:"groupID" doc:"Category group UUID"`
	Name       string `json:"name" doc:"Category name"`
	Hidden     bool   `json:"hidden" doc:"Hidden categories still count toward every total"`
	Budgeted   int64  `json:"budgeted" doc:"Assigned this month"`
	Activity   int64  `json:"activity" doc:"Sum of transactions this month"`
	Balance    int64  `json:"balance" doc:"Balance carried into next month"`
}

// BudgetMonth is the API response model for a budget month.
type BudgetMonth struct {
	Month        string          `json:"month" doc:"Month (YYYY-MM)"`
	Income       int64           `json:"income" doc:"Unbudgeted inflow dated in the month"`
	Budgeted     int64           `json:"budgeted" doc:"Total assigned this month"`
	Activity     int64           `json:"activity" doc:"Total categorized activity this month"`
	Balance      int64           `json:"balance" doc:"Total category balance at month end"`
	ToBeBudgeted int64           `json:"toBeBudgeted" doc:"To Be Budgeted as of the end of the month"`
	Categories   []CategoryMonth `json:"categories" doc:"Every category, ordered by group then category order"`
}

func toBudget(b service.Budget) Budget {
	return Budget{
		ID:           b.ID.String(),
		Name:         b.Name,
		Currency:     b.Currency,
		ToBeBudgeted: b.ToBeBudgeted.MinorUnits(),
		CreatedAt:    b.CreatedAt.Format(time.RFC3339),
	}
}

func toPayee(p service.Payee) Payee {
	return Payee{ID: p.ID.String(), Name: p.Name}
}

func toBudgetMonth(bm service.BudgetMonth) BudgetMonth {
	out := BudgetMonth{
		Month:        bm.Month.String(),
		Income:       bm.Income.MinorUnits(),
		Budgeted:     bm.Budgeted.MinorUnits(),
		Activity:     bm.Activity.MinorUnits(),
		Balance:      bm.Balance.MinorUnits(),
		ToBeBudgeted: bm.ToBeBudgeted.MinorUnits(),
		Categories:   make([]CategoryMonth, len(bm.Categories)),
	}
	for i, c := range bm.Categories {
		out.Categories[i] = CategoryMonth{
			CategoryID: c.CategoryID.String(),
			GroupID:    c.GroupID.String(),
			Name:       c.Name,
			Hidden:     c.Hidden,
			Budgeted:   c.Budgeted.MinorUnits(),
			Activity:   c.Activity.MinorUnits(),
			Balance:    c.Balance.MinorUnits(),
		}
	}
	return out
}

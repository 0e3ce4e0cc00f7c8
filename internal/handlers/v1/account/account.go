package account

import (
	"time"

	"github.com/carson-networks/budget-ledger/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	ID        string `json:"id" doc:"Account UUID"`
	BudgetID  string `json:"budgetID" doc:"Budget UUID"`
	Name      string `json:"name" doc:"Account name"`
	Type      int    `json:"type" doc:"Account type: 0=Cash, 1=Credit Cards, 2=Investments, 3=Loans, 4=Assets"`
	Balance   int64  `json:"balance" doc:"Balance in minor currency units"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
}

func toResponse(acc service.Account) Account {
	return Account{
		ID:        acc.ID.String(),
		BudgetID:  acc.BudgetID.String(),
		Name:      acc.Name,
		Type:      int(acc.Type),
		Balance:   acc.Balance.MinorUnits(),
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
	}
}

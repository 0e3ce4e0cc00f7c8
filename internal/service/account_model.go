package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// AccountType represents an account type in the service layer.
type AccountType int8

const (
	AccountTypeCash AccountType = iota
	AccountTypeCreditCards
	AccountTypeInvestments
	AccountTypeLoans
	AccountTypeAssets
)

// Account represents an account in the service layer.
type Account struct {
	ID        uuid.UUID
	BudgetID  uuid.UUID
	Name      string
	Type      AccountType
	Balance   money.Money
	CreatedAt time.Time
}

// NewAccount is the input for opening an account.
type NewAccount struct {
	Name            string
	Type            AccountType
	StartingBalance money.Money
	OpenedOn        time.Time
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

func accountTypeToStorage(t AccountType) storage.AccountType {
	return storage.AccountType(t)
}

func accountTypeFromStorage(t storage.AccountType) AccountType {
	return AccountType(t)
}

func accountFromStorage(a *storage.Account) Account {
	return Account{
		ID:        a.ID,
		BudgetID:  a.BudgetID,
		Name:      a.Name,
		Type:      accountTypeFromStorage(a.Type),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

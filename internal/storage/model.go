package storage

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
)

// Budget is the root every other record belongs to.
type Budget struct {
	ID           uuid.UUID
	Name         string
	Currency     string
	ToBeBudgeted money.Money
	CreatedAt    time.Time
}

type AccountType int8

const (
	AccountTypeCash AccountType = iota
	AccountTypeCreditCards
	AccountTypeInvestments
	AccountTypeLoans
	AccountTypeAssets
)

// Account holds a running balance that only transactions move.
type Account struct {
	ID        uuid.UUID
	BudgetID  uuid.UUID
	Name      string
	Type      AccountType
	Balance   money.Money
	CreatedAt time.Time
}

type Payee struct {
	ID       uuid.UUID
	BudgetID uuid.UUID
	Name     string
}

type CategoryGroup struct {
	ID       uuid.UUID
	BudgetID uuid.UUID
	Name     string
	Order    int
}

// Category is an envelope. FirstMonth is the earliest month its balance chain
// starts from; months before it are all zero.
type Category struct {
	ID         uuid.UUID
	BudgetID   uuid.UUID
	GroupID    uuid.UUID
	Name       string
	Order      int
	Hidden     bool
	FirstMonth month.Month
}

// Assignment is the amount budgeted to one category for one month.
type Assignment struct {
	CategoryID uuid.UUID
	Month      month.Month
	Amount     money.Money
}

// Transaction moves money in or out of an account. A nil CategoryID marks it
// as unbudgeted.
type Transaction struct {
	ID         uuid.UUID
	BudgetID   uuid.UUID
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	PayeeID    *uuid.UUID
	Amount     money.Money
	Date       time.Time
	Memo       string
	CreatedAt  time.Time
}

// Month returns the budget month the transaction falls in.
func (t *Transaction) Month() month.Month {
	return month.Of(t.Date)
}

// IsUnbudgeted reports whether the transaction bypasses every category.
func (t *Transaction) IsUnbudgeted() bool {
	return t.CategoryID == nil
}

// CategoryMonth is the derived state of one category in one month.
type CategoryMonth struct {
	Budgeted money.Money
	Activity money.Money
	Balance  money.Money
}

// CacheState describes how much of a category's balance chain is cached.
// FreshThrough is nil when nothing is fresh. Epoch changes on every
// invalidation so writers can detect that their sweep was overtaken.
type CacheState struct {
	FreshThrough *month.Month
	Epoch        int64
}

// TransactionFilter specifies filters for listing transactions.
type TransactionFilter struct {
	BudgetID        uuid.UUID
	AccountID       *uuid.UUID
	CategoryID      *uuid.UUID
	Limit           int
	Offset          int
	MaxCreationTime *time.Time
}

// AccountFilter specifies filters for listing accounts.
type AccountFilter struct {
	BudgetID uuid.UUID
	Limit    int
	Offset   int
}

// CloneUUID returns a pointer to a copy of id, or nil for a nil input.
func CloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

// SameUUID compares optional IDs.
func SameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

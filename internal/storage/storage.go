// Package storage defines the persistence contract the ledger engine runs
// against. Implementations live in the memory and sqlconfig subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
)

var (
	// ErrNotFound is returned by single-record lookups that match nothing.
	ErrNotFound = errors.New("not found")

	// ErrStaleRead is returned by SetCachedCategoryMonth when the category was
	// invalidated after the caller observed its CacheState. The caller must
	// restart its sweep.
	ErrStaleRead = errors.New("stale read")
)

// Reader is the read side of the ledger store.
type Reader interface {
	Budget(ctx context.Context, id uuid.UUID) (*Budget, error)
	ListBudgets(ctx context.Context) ([]*Budget, error)
	Account(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, filter *AccountFilter) ([]*Account, error)
	Payee(ctx context.Context, id uuid.UUID) (*Payee, error)
	// ListPayees returns a budget's payees by name.
	ListPayees(ctx context.Context, budgetID uuid.UUID) ([]*Payee, error)
	CategoryGroup(ctx context.Context, id uuid.UUID) (*CategoryGroup, error)
	// CategoryGroupsForBudget returns a budget's groups by order.
	CategoryGroupsForBudget(ctx context.Context, budgetID uuid.UUID) ([]*CategoryGroup, error)
	Category(ctx context.Context, id uuid.UUID) (*Category, error)
	// CategoriesForBudget returns categories ordered by group order, then
	// category order.
	CategoriesForBudget(ctx context.Context, budgetID uuid.UUID) ([]*Category, error)
	Transaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
	TransactionsForCategory(ctx context.Context, categoryID uuid.UUID) ([]*Transaction, error)

	// CategoryAssignment reports the amount budgeted for (category, month) and
	// whether a row exists at all.
	CategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, bool, error)
	AssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) ([]Assignment, error)
	SumTransactionsForCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, error)
	// SumUnbudgetedTransactions sums transactions without a category dated up
	// to the end of upto, or all of them when upto is nil.
	SumUnbudgetedTransactions(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error)
	// SumAssignments sums assignment amounts for months up to upto, or all of
	// them when upto is nil.
	SumAssignments(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error)

	// LatestCategoryMonth reports the latest month holding an assignment or a
	// transaction of the category, and false when it has neither.
	LatestCategoryMonth(ctx context.Context, categoryID uuid.UUID) (month.Month, bool, error)

	CacheState(ctx context.Context, categoryID uuid.UUID) (CacheState, error)
	// CachedCategoryMonth returns the cached value and whether it is fresh.
	CachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (CategoryMonth, bool, error)
}

// CacheWriter stores swept balances. Writes for one category must arrive in
// month order, each directly after the current FreshThrough (or anywhere when
// nothing is fresh). A write made with an outdated epoch fails with
// ErrStaleRead.
type CacheWriter interface {
	SetCachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm CategoryMonth) error
}

// Projection is what read paths need: committed state plus cache write-back.
type Projection interface {
	Reader
	CacheWriter
}

// Writer is the mutation side, only available inside a Tx.
type Writer interface {
	Projection

	InsertBudget(ctx context.Context, budget *Budget) error
	InsertAccount(ctx context.Context, account *Account) error
	InsertPayee(ctx context.Context, payee *Payee) error
	InsertCategoryGroup(ctx context.Context, group *CategoryGroup) error
	InsertCategory(ctx context.Context, category *Category) error
	// UpdateCategoryGroup stores a group's name and order.
	UpdateCategoryGroup(ctx context.Context, group *CategoryGroup) error
	// UpdateCategory stores a category's group, name, order and hidden flag.
	// FirstMonth is only changed through SetCategoryFirstMonth.
	UpdateCategory(ctx context.Context, category *Category) error
	SetCategoryFirstMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) error
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error

	SetCategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month, amount money.Money) error
	DeleteAssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) error

	InsertTransaction(ctx context.Context, tx *Transaction) error
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	// ReassignCategoryTransactions re-points every transaction of from to to
	// (nil makes them unbudgeted).
	ReassignCategoryTransactions(ctx context.Context, from uuid.UUID, to *uuid.UUID) error

	AdjustAccountBalance(ctx context.Context, accountID uuid.UUID, delta money.Money) error
	AdjustToBeBudgeted(ctx context.Context, budgetID uuid.UUID, delta money.Money) error
	SetToBeBudgeted(ctx context.Context, budgetID uuid.UUID, amount money.Money) error

	// InvalidateCategoryFrom marks every cached month >= m stale and bumps
	// the category's epoch.
	InvalidateCategoryFrom(ctx context.Context, categoryID uuid.UUID, m month.Month) error
}

// Tx is an all-or-nothing unit of writes.
type Tx interface {
	Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is a ledger store: committed reads plus transactions.
type Store interface {
	Projection
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

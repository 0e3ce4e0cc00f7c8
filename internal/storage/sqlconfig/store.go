// Package sqlconfig is the PostgreSQL ledger store, built on bob query
// builders over database/sql with the lib/pq driver.
package sqlconfig

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofrs/uuid/v5"
	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// tables groups every table over one executor: the pool for committed reads,
// or an open transaction.
type tables struct {
	budgets      *BudgetsTable
	accounts     *AccountsTable
	categories   *CategoriesTable
	transactions *TransactionsTable
	cache        *CacheTable
}

func newTables(exec bob.Executor) tables {
	return tables{
		budgets:      &BudgetsTable{exec: exec},
		accounts:     &AccountsTable{exec: exec},
		categories:   &CategoriesTable{exec: exec},
		transactions: &TransactionsTable{exec: exec},
		cache:        &CacheTable{exec: exec},
	}
}

// Store implements storage.Store on PostgreSQL.
type Store struct {
	tables
	db    *sql.DB
	bobDB bob.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to dsn and checks the connection. The schema must already be
// migrated.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return NewStore(db), nil
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	bobDB := bob.NewDB(db)
	return &Store{tables: newTables(bobDB), db: db, bobDB: bobDB}
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.bobDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tables: newTables(tx), tx: tx}, nil
}

// SetCachedCategoryMonth writes back a swept balance in a short transaction
// of its own.
func (s *Store) SetCachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	tx, err := s.bobDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := (&CacheTable{exec: tx}).Set(ctx, categoryID, epoch, m, cm); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tx implements storage.Tx over a database transaction.
type Tx struct {
	tables
	tx bob.Tx
}

var _ storage.Tx = (*Tx)(nil)

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func (t *Tx) SetCachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	return t.cache.Set(ctx, categoryID, epoch, m, cm)
}

func (t *Tx) InsertBudget(ctx context.Context, b *storage.Budget) error {
	return t.budgets.Insert(ctx, b)
}

func (t *Tx) InsertAccount(ctx context.Context, a *storage.Account) error {
	return t.accounts.Insert(ctx, a)
}

func (t *Tx) InsertPayee(ctx context.Context, p *storage.Payee) error {
	return t.budgets.InsertPayee(ctx, p)
}

func (t *Tx) InsertCategoryGroup(ctx context.Context, g *storage.CategoryGroup) error {
	return t.categories.InsertGroup(ctx, g)
}

func (t *Tx) InsertCategory(ctx context.Context, c *storage.Category) error {
	return t.categories.Insert(ctx, c)
}

func (t *Tx) UpdateCategoryGroup(ctx context.Context, g *storage.CategoryGroup) error {
	return t.categories.UpdateGroup(ctx, g)
}

func (t *Tx) UpdateCategory(ctx context.Context, c *storage.Category) error {
	return t.categories.Update(ctx, c)
}

func (t *Tx) SetCategoryFirstMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) error {
	return t.categories.SetFirstMonth(ctx, categoryID, m)
}

func (t *Tx) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return t.categories.Delete(ctx, categoryID)
}

func (t *Tx) SetCategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month, amount money.Money) error {
	return t.categories.SetAssignment(ctx, categoryID, m, amount)
}

func (t *Tx) DeleteAssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) error {
	return t.categories.DeleteAssignments(ctx, categoryID)
}

func (t *Tx) InsertTransaction(ctx context.Context, tx *storage.Transaction) error {
	return t.transactions.Insert(ctx, tx)
}

func (t *Tx) UpdateTransaction(ctx context.Context, tx *storage.Transaction) error {
	return t.transactions.Update(ctx, tx)
}

func (t *Tx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	return t.transactions.Delete(ctx, id)
}

func (t *Tx) ReassignCategoryTransactions(ctx context.Context, from uuid.UUID, to *uuid.UUID) error {
	return t.transactions.ReassignCategory(ctx, from, to)
}

func (t *Tx) AdjustAccountBalance(ctx context.Context, accountID uuid.UUID, delta money.Money) error {
	return t.accounts.AdjustBalance(ctx, accountID, delta)
}

func (t *Tx) AdjustToBeBudgeted(ctx context.Context, budgetID uuid.UUID, delta money.Money) error {
	return t.budgets.AdjustToBeBudgeted(ctx, budgetID, delta)
}

func (t *Tx) SetToBeBudgeted(ctx context.Context, budgetID uuid.UUID, amount money.Money) error {
	return t.budgets.SetToBeBudgeted(ctx, budgetID, amount)
}

func (t *Tx) InvalidateCategoryFrom(ctx context.Context, categoryID uuid.UUID, m month.Month) error {
	return t.cache.InvalidateFrom(ctx, categoryID, m)
}

// -- reads shared by Store and Tx --

func (t tables) Budget(ctx context.Context, id uuid.UUID) (*storage.Budget, error) {
	return t.budgets.FindByID(ctx, id)
}

func (t tables) ListBudgets(ctx context.Context) ([]*storage.Budget, error) {
	return t.budgets.List(ctx)
}

func (t tables) Account(ctx context.Context, id uuid.UUID) (*storage.Account, error) {
	return t.accounts.FindByID(ctx, id)
}

func (t tables) ListAccounts(ctx context.Context, filter *storage.AccountFilter) ([]*storage.Account, error) {
	return t.accounts.List(ctx, filter)
}

func (t tables) Payee(ctx context.Context, id uuid.UUID) (*storage.Payee, error) {
	return t.budgets.FindPayee(ctx, id)
}

func (t tables) ListPayees(ctx context.Context, budgetID uuid.UUID) ([]*storage.Payee, error) {
	return t.budgets.Payees(ctx, budgetID)
}

func (t tables) CategoryGroupsForBudget(ctx context.Context, budgetID uuid.UUID) ([]*storage.CategoryGroup, error) {
	return t.categories.Groups(ctx, budgetID)
}

func (t tables) CategoryGroup(ctx context.Context, id uuid.UUID) (*storage.CategoryGroup, error) {
	return t.categories.FindGroup(ctx, id)
}

func (t tables) Category(ctx context.Context, id uuid.UUID) (*storage.Category, error) {
	return t.categories.FindByID(ctx, id)
}

func (t tables) CategoriesForBudget(ctx context.Context, budgetID uuid.UUID) ([]*storage.Category, error) {
	return t.categories.ForBudget(ctx, budgetID)
}

func (t tables) Transaction(ctx context.Context, id uuid.UUID) (*storage.Transaction, error) {
	return t.transactions.FindByID(ctx, id)
}

func (t tables) ListTransactions(ctx context.Context, filter *storage.TransactionFilter) ([]*storage.Transaction, error) {
	return t.transactions.List(ctx, filter)
}

func (t tables) TransactionsForCategory(ctx context.Context, categoryID uuid.UUID) ([]*storage.Transaction, error) {
	return t.transactions.ForCategory(ctx, categoryID)
}

func (t tables) CategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, bool, error) {
	return t.categories.Assignment(ctx, categoryID, m)
}

func (t tables) AssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) ([]storage.Assignment, error) {
	return t.categories.Assignments(ctx, categoryID)
}

func (t tables) SumTransactionsForCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, error) {
	return t.transactions.SumForCategoryMonth(ctx, categoryID, m)
}

func (t tables) SumUnbudgetedTransactions(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	return t.transactions.SumUnbudgeted(ctx, budgetID, upto)
}

func (t tables) SumAssignments(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	return t.categories.SumAssignments(ctx, budgetID, upto)
}

func (t tables) LatestCategoryMonth(ctx context.Context, categoryID uuid.UUID) (month.Month, bool, error) {
	return t.cache.Latest(ctx, categoryID)
}

func (t tables) CacheState(ctx context.Context, categoryID uuid.UUID) (storage.CacheState, error) {
	return t.cache.State(ctx, categoryID)
}

func (t tables) CachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, bool, error) {
	return t.cache.Get(ctx, categoryID, m)
}

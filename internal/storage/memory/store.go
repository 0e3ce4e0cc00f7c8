// Package memory is an in-process ledger store. Committed data lives in plain
// maps guarded by one RWMutex; a transaction records its writes in an overlay
// and folds them in on commit, so readers see either all of a transaction or
// none of it.
//
// The store does not serialize transactions itself. Callers must not run two
// transactions that write the same records concurrently; the operator's
// per-budget queues guarantee that.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

var errTxDone = errors.New("transaction already committed or rolled back")

// Store implements storage.Store.
type Store struct {
	locked
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{locked: locked{mu: &sync.RWMutex{}, v: newView()}}
}

// SetCachedCategoryMonth writes back a swept balance outside any transaction.
func (s *Store) SetCachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.setCachedCategoryMonth(ctx, categoryID, epoch, m, cm)
}

func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	overlay := s.v.overlay()
	s.mu.RUnlock()
	return &Tx{locked: locked{mu: s.mu, v: overlay}}, nil
}

func (s *Store) Close() error {
	return nil
}

// Tx implements storage.Tx over an overlay of the store's committed view.
type Tx struct {
	locked
	done bool
}

var _ storage.Tx = (*Tx)(nil)

func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.mu.Lock()
	defer t.mu.Unlock()
	t.v.apply()
	return nil
}

func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	return nil
}

func (t *Tx) SetCachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.setCachedCategoryMonth(ctx, categoryID, epoch, m, cm)
}

func (t *Tx) InsertBudget(ctx context.Context, b *storage.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertBudget(ctx, b)
}

func (t *Tx) InsertAccount(ctx context.Context, a *storage.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertAccount(ctx, a)
}

func (t *Tx) InsertPayee(ctx context.Context, p *storage.Payee) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertPayee(ctx, p)
}

func (t *Tx) InsertCategoryGroup(ctx context.Context, g *storage.CategoryGroup) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertCategoryGroup(ctx, g)
}

func (t *Tx) InsertCategory(ctx context.Context, c *storage.Category) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertCategory(ctx, c)
}

func (t *Tx) UpdateCategoryGroup(ctx context.Context, g *storage.CategoryGroup) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.updateCategoryGroup(ctx, g)
}

func (t *Tx) UpdateCategory(ctx context.Context, c *storage.Category) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.updateCategory(ctx, c)
}

func (t *Tx) SetCategoryFirstMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.setCategoryFirstMonth(ctx, categoryID, m)
}

func (t *Tx) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.deleteCategory(ctx, categoryID)
}

func (t *Tx) SetCategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month, amount money.Money) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.setCategoryAssignment(ctx, categoryID, m, amount)
}

func (t *Tx) DeleteAssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.deleteAssignmentsForCategory(ctx, categoryID)
}

func (t *Tx) InsertTransaction(ctx context.Context, tx *storage.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.insertTransaction(ctx, tx)
}

func (t *Tx) UpdateTransaction(ctx context.Context, tx *storage.Transaction) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.updateTransaction(ctx, tx)
}

func (t *Tx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.deleteTransaction(ctx, id)
}

func (t *Tx) ReassignCategoryTransactions(ctx context.Context, from uuid.UUID, to *uuid.UUID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.reassignCategoryTransactions(ctx, from, to)
}

func (t *Tx) AdjustAccountBalance(ctx context.Context, accountID uuid.UUID, delta money.Money) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.adjustAccountBalance(ctx, accountID, delta)
}

func (t *Tx) AdjustToBeBudgeted(ctx context.Context, budgetID uuid.UUID, delta money.Money) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.adjustToBeBudgeted(ctx, budgetID, delta)
}

func (t *Tx) SetToBeBudgeted(ctx context.Context, budgetID uuid.UUID, amount money.Money) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.setToBeBudgeted(ctx, budgetID, amount)
}

func (t *Tx) InvalidateCategoryFrom(ctx context.Context, categoryID uuid.UUID, m month.Month) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v.invalidateCategoryFrom(ctx, categoryID, m)
}

// locked serves storage.Reader from a view under the store's read lock.
type locked struct {
	mu *sync.RWMutex
	v  *view
}

func (l locked) Budget(ctx context.Context, id uuid.UUID) (*storage.Budget, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.budget(ctx, id)
}

func (l locked) ListBudgets(ctx context.Context) ([]*storage.Budget, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.listBudgets(ctx)
}

func (l locked) Account(ctx context.Context, id uuid.UUID) (*storage.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.account(ctx, id)
}

func (l locked) ListAccounts(ctx context.Context, filter *storage.AccountFilter) ([]*storage.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.listAccounts(ctx, filter)
}

func (l locked) Payee(ctx context.Context, id uuid.UUID) (*storage.Payee, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.payee(ctx, id)
}

func (l locked) ListPayees(ctx context.Context, budgetID uuid.UUID) ([]*storage.Payee, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.listPayees(ctx, budgetID)
}

func (l locked) CategoryGroupsForBudget(ctx context.Context, budgetID uuid.UUID) ([]*storage.CategoryGroup, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.categoryGroupsForBudget(ctx, budgetID)
}

func (l locked) CategoryGroup(ctx context.Context, id uuid.UUID) (*storage.CategoryGroup, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.categoryGroup(ctx, id)
}

func (l locked) Category(ctx context.Context, id uuid.UUID) (*storage.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.category(ctx, id)
}

func (l locked) CategoriesForBudget(ctx context.Context, budgetID uuid.UUID) ([]*storage.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.categoriesForBudget(ctx, budgetID)
}

func (l locked) Transaction(ctx context.Context, id uuid.UUID) (*storage.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.transaction(ctx, id)
}

func (l locked) ListTransactions(ctx context.Context, filter *storage.TransactionFilter) ([]*storage.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.listTransactions(ctx, filter)
}

func (l locked) TransactionsForCategory(ctx context.Context, categoryID uuid.UUID) ([]*storage.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.transactionsForCategory(ctx, categoryID)
}

func (l locked) CategoryAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.categoryAssignment(ctx, categoryID, m)
}

func (l locked) AssignmentsForCategory(ctx context.Context, categoryID uuid.UUID) ([]storage.Assignment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.assignmentsForCategory(ctx, categoryID)
}

func (l locked) SumTransactionsForCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.sumTransactionsForCategoryMonth(ctx, categoryID, m)
}

func (l locked) SumUnbudgetedTransactions(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.sumUnbudgetedTransactions(ctx, budgetID, upto)
}

func (l locked) SumAssignments(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.sumAssignments(ctx, budgetID, upto)
}

func (l locked) LatestCategoryMonth(ctx context.Context, categoryID uuid.UUID) (month.Month, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.latestCategoryMonth(ctx, categoryID)
}

func (l locked) CacheState(ctx context.Context, categoryID uuid.UUID) (storage.CacheState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.cacheState(ctx, categoryID)
}

func (l locked) CachedCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v.cachedCategoryMonth(ctx, categoryID, m)
}

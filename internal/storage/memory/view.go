package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type assignmentKey struct {
	categoryID uuid.UUID
	month      month.Month
}

// view is the full data set, either committed or overlaid by a transaction.
// It does no locking of its own.
type view struct {
	budgets      table[uuid.UUID, storage.Budget]
	accounts     table[uuid.UUID, storage.Account]
	payees       table[uuid.UUID, storage.Payee]
	groups       table[uuid.UUID, storage.CategoryGroup]
	categories   table[uuid.UUID, storage.Category]
	transactions table[uuid.UUID, storage.Transaction]
	assignments  table[assignmentKey, money.Money]
	caches       table[uuid.UUID, *arena]
}

func newView() *view {
	return &view{
		budgets:      newTable[uuid.UUID, storage.Budget](),
		accounts:     newTable[uuid.UUID, storage.Account](),
		payees:       newTable[uuid.UUID, storage.Payee](),
		groups:       newTable[uuid.UUID, storage.CategoryGroup](),
		categories:   newTable[uuid.UUID, storage.Category](),
		transactions: newTable[uuid.UUID, storage.Transaction](),
		assignments:  newTable[assignmentKey, money.Money](),
		caches:       newTable[uuid.UUID, *arena](),
	}
}

func (v *view) overlay() *view {
	return &view{
		budgets:      v.budgets.overlay(),
		accounts:     v.accounts.overlay(),
		payees:       v.payees.overlay(),
		groups:       v.groups.overlay(),
		categories:   v.categories.overlay(),
		transactions: v.transactions.overlay(),
		assignments:  v.assignments.overlay(),
		caches:       v.caches.overlay(),
	}
}

func (v *view) apply() {
	v.budgets.apply()
	v.accounts.apply()
	v.payees.apply()
	v.groups.apply()
	v.categories.apply()
	v.transactions.apply()
	v.assignments.apply()
	v.caches.apply()
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

func cloneTransaction(t storage.Transaction) storage.Transaction {
	t.CategoryID = storage.CloneUUID(t.CategoryID)
	t.PayeeID = storage.CloneUUID(t.PayeeID)
	return t
}

func uuidLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	// One extra row lets callers detect a following page.
	if limit > 0 && len(rows) > limit+1 {
		rows = rows[:limit+1]
	}
	return rows
}

// -- reads --

func (v *view) budget(_ context.Context, id uuid.UUID) (*storage.Budget, error) {
	b, ok := v.budgets.get(id)
	if !ok {
		return nil, notFound("budget", id)
	}
	return &b, nil
}

func (v *view) listBudgets(_ context.Context) ([]*storage.Budget, error) {
	var out []*storage.Budget
	v.budgets.each(func(_ uuid.UUID, b storage.Budget) {
		out = append(out, &b)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (v *view) account(_ context.Context, id uuid.UUID) (*storage.Account, error) {
	a, ok := v.accounts.get(id)
	if !ok {
		return nil, notFound("account", id)
	}
	return &a, nil
}

func (v *view) listAccounts(_ context.Context, filter *storage.AccountFilter) ([]*storage.Account, error) {
	var out []*storage.Account
	v.accounts.each(func(_ uuid.UUID, a storage.Account) {
		if filter != nil && a.BudgetID != filter.BudgetID {
			return
		}
		out = append(out, &a)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	if filter != nil {
		out = page(out, filter.Limit, filter.Offset)
	}
	return out, nil
}

func (v *view) payee(_ context.Context, id uuid.UUID) (*storage.Payee, error) {
	p, ok := v.payees.get(id)
	if !ok {
		return nil, notFound("payee", id)
	}
	return &p, nil
}

func (v *view) listPayees(_ context.Context, budgetID uuid.UUID) ([]*storage.Payee, error) {
	var out []*storage.Payee
	v.payees.each(func(_ uuid.UUID, p storage.Payee) {
		if p.BudgetID == budgetID {
			out = append(out, &p)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (v *view) categoryGroupsForBudget(_ context.Context, budgetID uuid.UUID) ([]*storage.CategoryGroup, error) {
	var out []*storage.CategoryGroup
	v.groups.each(func(_ uuid.UUID, g storage.CategoryGroup) {
		if g.BudgetID == budgetID {
			out = append(out, &g)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (v *view) categoryGroup(_ context.Context, id uuid.UUID) (*storage.CategoryGroup, error) {
	g, ok := v.groups.get(id)
	if !ok {
		return nil, notFound("category group", id)
	}
	return &g, nil
}

func (v *view) category(_ context.Context, id uuid.UUID) (*storage.Category, error) {
	c, ok := v.categories.get(id)
	if !ok {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func (v *view) categoriesForBudget(_ context.Context, budgetID uuid.UUID) ([]*storage.Category, error) {
	var out []*storage.Category
	v.categories.each(func(_ uuid.UUID, c storage.Category) {
		if c.BudgetID == budgetID {
			out = append(out, &c)
		}
	})
	groupOrder := func(id uuid.UUID) int {
		g, _ := v.groups.get(id)
		return g.Order
	}
	sort.Slice(out, func(i, j int) bool {
		gi, gj := groupOrder(out[i].GroupID), groupOrder(out[j].GroupID)
		switch {
		case gi != gj:
			return gi < gj
		case out[i].GroupID != out[j].GroupID:
			return uuidLess(out[i].GroupID, out[j].GroupID)
		case out[i].Order != out[j].Order:
			return out[i].Order < out[j].Order
		case out[i].Name != out[j].Name:
			return out[i].Name < out[j].Name
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (v *view) transaction(_ context.Context, id uuid.UUID) (*storage.Transaction, error) {
	t, ok := v.transactions.get(id)
	if !ok {
		return nil, notFound("transaction", id)
	}
	t = cloneTransaction(t)
	return &t, nil
}

func (v *view) listTransactions(_ context.Context, filter *storage.TransactionFilter) ([]*storage.Transaction, error) {
	var out []*storage.Transaction
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if filter != nil {
			if t.BudgetID != filter.BudgetID {
				return
			}
			if filter.AccountID != nil && t.AccountID != *filter.AccountID {
				return
			}
			if filter.CategoryID != nil && !storage.SameUUID(t.CategoryID, filter.CategoryID) {
				return
			}
			if filter.MaxCreationTime != nil && t.CreatedAt.After(*filter.MaxCreationTime) {
				return
			}
		}
		t = cloneTransaction(t)
		out = append(out, &t)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return uuidLess(out[j].ID, out[i].ID)
	})
	if filter != nil {
		out = page(out, filter.Limit, filter.Offset)
	}
	return out, nil
}

func (v *view) transactionsForCategory(_ context.Context, categoryID uuid.UUID) ([]*storage.Transaction, error) {
	var out []*storage.Transaction
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			t = cloneTransaction(t)
			out = append(out, &t)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return uuidLess(out[i].ID, out[j].ID)
	})
	return out, nil
}

func (v *view) categoryAssignment(_ context.Context, categoryID uuid.UUID, m month.Month) (money.Money, bool, error) {
	amount, ok := v.assignments.get(assignmentKey{categoryID: categoryID, month: m})
	return amount, ok, nil
}

func (v *view) assignmentsForCategory(_ context.Context, categoryID uuid.UUID) ([]storage.Assignment, error) {
	var out []storage.Assignment
	v.assignments.each(func(k assignmentKey, amount money.Money) {
		if k.categoryID == categoryID {
			out = append(out, storage.Assignment{CategoryID: k.categoryID, Month: k.month, Amount: amount})
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (v *view) latestCategoryMonth(_ context.Context, categoryID uuid.UUID) (month.Month, bool, error) {
	var (
		latest month.Month
		found  bool
	)
	see := func(m month.Month) {
		if !found || m.After(latest) {
			latest, found = m, true
		}
	}
	v.assignments.each(func(k assignmentKey, _ money.Money) {
		if k.categoryID == categoryID {
			see(k.month)
		}
	})
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			see(t.Month())
		}
	})
	return latest, found, nil
}

func (v *view) sumTransactionsForCategoryMonth(_ context.Context, categoryID uuid.UUID, m month.Month) (money.Money, error) {
	total := money.Zero
	var err error
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if err != nil || t.CategoryID == nil || *t.CategoryID != categoryID || !m.Contains(t.Date) {
			return
		}
		total, err = total.Add(t.Amount)
	})
	return total, err
}

func (v *view) sumUnbudgetedTransactions(_ context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	total := money.Zero
	var err error
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if err != nil || t.BudgetID != budgetID || t.CategoryID != nil {
			return
		}
		if upto != nil && !t.Date.Before(upto.End()) {
			return
		}
		total, err = total.Add(t.Amount)
	})
	return total, err
}

func (v *view) sumAssignments(_ context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	total := money.Zero
	var err error
	v.assignments.each(func(k assignmentKey, amount money.Money) {
		if err != nil {
			return
		}
		if upto != nil && k.month.After(*upto) {
			return
		}
		c, ok := v.categories.get(k.categoryID)
		if !ok || c.BudgetID != budgetID {
			return
		}
		total, err = total.Add(amount)
	})
	return total, err
}

func (v *view) cacheState(_ context.Context, categoryID uuid.UUID) (storage.CacheState, error) {
	a, ok := v.caches.get(categoryID)
	if !ok {
		return storage.CacheState{}, nil
	}
	return a.state(), nil
}

func (v *view) cachedCategoryMonth(_ context.Context, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, bool, error) {
	a, ok := v.caches.get(categoryID)
	if !ok {
		return storage.CategoryMonth{}, false, nil
	}
	cm, fresh := a.get(m)
	return cm, fresh, nil
}

// -- writes --

// arenaForWrite returns an arena owned by this view, copying the committed
// one on first write inside a transaction.
func (v *view) arenaForWrite(categoryID uuid.UUID) *arena {
	a, ok := v.caches.get(categoryID)
	if ok && (v.caches.writes == nil || v.caches.overwritten(categoryID)) {
		return a
	}
	if ok {
		a = a.clone()
	} else {
		a = &arena{}
	}
	v.caches.put(categoryID, a)
	return a
}

func (v *view) setCachedCategoryMonth(_ context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	c, ok := v.categories.get(categoryID)
	if !ok {
		return notFound("category", categoryID)
	}
	return v.arenaForWrite(categoryID).set(epoch, c.FirstMonth, m, cm)
}

func (v *view) invalidateCategoryFrom(_ context.Context, categoryID uuid.UUID, m month.Month) error {
	v.arenaForWrite(categoryID).invalidateFrom(m)
	return nil
}

func (v *view) insertBudget(_ context.Context, b *storage.Budget) error {
	if _, exists := v.budgets.get(b.ID); exists {
		return fmt.Errorf("budget %s already exists", b.ID)
	}
	v.budgets.put(b.ID, *b)
	return nil
}

func (v *view) insertAccount(_ context.Context, a *storage.Account) error {
	if _, exists := v.accounts.get(a.ID); exists {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	v.accounts.put(a.ID, *a)
	return nil
}

func (v *view) insertPayee(_ context.Context, p *storage.Payee) error {
	v.payees.put(p.ID, *p)
	return nil
}

func (v *view) insertCategoryGroup(_ context.Context, g *storage.CategoryGroup) error {
	v.groups.put(g.ID, *g)
	return nil
}

func (v *view) updateCategoryGroup(_ context.Context, g *storage.CategoryGroup) error {
	cur, ok := v.groups.get(g.ID)
	if !ok {
		return notFound("category group", g.ID)
	}
	cur.Name, cur.Order = g.Name, g.Order
	v.groups.put(g.ID, cur)
	return nil
}

func (v *view) updateCategory(_ context.Context, c *storage.Category) error {
	cur, ok := v.categories.get(c.ID)
	if !ok {
		return notFound("category", c.ID)
	}
	cur.GroupID, cur.Name, cur.Order, cur.Hidden = c.GroupID, c.Name, c.Order, c.Hidden
	v.categories.put(c.ID, cur)
	return nil
}

func (v *view) insertCategory(_ context.Context, c *storage.Category) error {
	if _, exists := v.categories.get(c.ID); exists {
		return fmt.Errorf("category %s already exists", c.ID)
	}
	v.categories.put(c.ID, *c)
	return nil
}

func (v *view) setCategoryFirstMonth(_ context.Context, categoryID uuid.UUID, m month.Month) error {
	c, ok := v.categories.get(categoryID)
	if !ok {
		return notFound("category", categoryID)
	}
	c.FirstMonth = m
	v.categories.put(categoryID, c)
	return nil
}

func (v *view) deleteCategory(_ context.Context, categoryID uuid.UUID) error {
	if _, ok := v.categories.get(categoryID); !ok {
		return notFound("category", categoryID)
	}
	v.categories.del(categoryID)
	v.caches.del(categoryID)
	return nil
}

func (v *view) setCategoryAssignment(_ context.Context, categoryID uuid.UUID, m month.Month, amount money.Money) error {
	if _, ok := v.categories.get(categoryID); !ok {
		return notFound("category", categoryID)
	}
	v.assignments.put(assignmentKey{categoryID: categoryID, month: m}, amount)
	return nil
}

func (v *view) deleteAssignmentsForCategory(_ context.Context, categoryID uuid.UUID) error {
	var keys []assignmentKey
	v.assignments.each(func(k assignmentKey, _ money.Money) {
		if k.categoryID == categoryID {
			keys = append(keys, k)
		}
	})
	for _, k := range keys {
		v.assignments.del(k)
	}
	return nil
}

func (v *view) insertTransaction(_ context.Context, t *storage.Transaction) error {
	if _, exists := v.transactions.get(t.ID); exists {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	v.transactions.put(t.ID, cloneTransaction(*t))
	return nil
}

func (v *view) updateTransaction(_ context.Context, t *storage.Transaction) error {
	if _, ok := v.transactions.get(t.ID); !ok {
		return notFound("transaction", t.ID)
	}
	v.transactions.put(t.ID, cloneTransaction(*t))
	return nil
}

func (v *view) deleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := v.transactions.get(id); !ok {
		return notFound("transaction", id)
	}
	v.transactions.del(id)
	return nil
}

func (v *view) reassignCategoryTransactions(_ context.Context, from uuid.UUID, to *uuid.UUID) error {
	var moved []storage.Transaction
	v.transactions.each(func(_ uuid.UUID, t storage.Transaction) {
		if t.CategoryID != nil && *t.CategoryID == from {
			moved = append(moved, t)
		}
	})
	for _, t := range moved {
		t.CategoryID = storage.CloneUUID(to)
		v.transactions.put(t.ID, cloneTransaction(t))
	}
	return nil
}

func (v *view) adjustAccountBalance(_ context.Context, accountID uuid.UUID, delta money.Money) error {
	a, ok := v.accounts.get(accountID)
	if !ok {
		return notFound("account", accountID)
	}
	balance, err := a.Balance.Add(delta)
	if err != nil {
		return err
	}
	a.Balance = balance
	v.accounts.put(accountID, a)
	return nil
}

func (v *view) adjustToBeBudgeted(_ context.Context, budgetID uuid.UUID, delta money.Money) error {
	b, ok := v.budgets.get(budgetID)
	if !ok {
		return notFound("budget", budgetID)
	}
	tbb, err := b.ToBeBudgeted.Add(delta)
	if err != nil {
		return err
	}
	b.ToBeBudgeted = tbb
	v.budgets.put(budgetID, b)
	return nil
}

func (v *view) setToBeBudgeted(_ context.Context, budgetID uuid.UUID, amount money.Money) error {
	b, ok := v.budgets.get(budgetID)
	if !ok {
		return notFound("budget", budgetID)
	}
	b.ToBeBudgeted = amount
	v.budgets.put(budgetID, b)
	return nil
}

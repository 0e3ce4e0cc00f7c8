package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

var (
	// ErrUnknownEntity is returned when a referenced record does not exist.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrCrossBudgetReference is returned when a mutation mixes records from
	// different budgets.
	ErrCrossBudgetReference = errors.New("cross-budget reference")
	// ErrInvalidInput is returned for malformed mutations.
	ErrInvalidInput = errors.New("invalid input")
)

func unknown(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrUnknownEntity, kind, id)
	}
	return err
}

func crossBudget(kind string, id, budgetID uuid.UUID) error {
	return fmt.Errorf("%w: %s %s does not belong to budget %s", ErrCrossBudgetReference, kind, id, budgetID)
}

func checkMonth(what string, m month.Month) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %s %s outside %s..%s", ErrInvalidInput, what, m, month.Min, month.Max)
	}
	return nil
}

func lookupCategory(ctx context.Context, r storage.Reader, id uuid.UUID) (*storage.Category, error) {
	c, err := r.Category(ctx, id)
	if err != nil {
		return nil, unknown("category", id, err)
	}
	return c, nil
}

func lookupBudget(ctx context.Context, r storage.Reader, id uuid.UUID) (*storage.Budget, error) {
	b, err := r.Budget(ctx, id)
	if err != nil {
		return nil, unknown("budget", id, err)
	}
	return b, nil
}

// refs resolves and caches the records a mutation references, enforcing that
// they all belong to one budget.
type refs struct {
	r          storage.Reader
	budgetID   uuid.UUID
	accounts   map[uuid.UUID]*storage.Account
	categories map[uuid.UUID]*storage.Category
	payees     map[uuid.UUID]*storage.Payee
}

func newRefs(r storage.Reader, budgetID uuid.UUID) *refs {
	return &refs{
		r:          r,
		budgetID:   budgetID,
		accounts:   make(map[uuid.UUID]*storage.Account),
		categories: make(map[uuid.UUID]*storage.Category),
		payees:     make(map[uuid.UUID]*storage.Payee),
	}
}

func (v *refs) account(ctx context.Context, id uuid.UUID) (*storage.Account, error) {
	if a, ok := v.accounts[id]; ok {
		return a, nil
	}
	a, err := v.r.Account(ctx, id)
	if err != nil {
		return nil, unknown("account", id, err)
	}
	if a.BudgetID != v.budgetID {
		return nil, crossBudget("account", id, v.budgetID)
	}
	v.accounts[id] = a
	return a, nil
}

func (v *refs) category(ctx context.Context, id uuid.UUID) (*storage.Category, error) {
	if c, ok := v.categories[id]; ok {
		return c, nil
	}
	c, err := lookupCategory(ctx, v.r, id)
	if err != nil {
		return nil, err
	}
	if c.BudgetID != v.budgetID {
		return nil, crossBudget("category", id, v.budgetID)
	}
	v.categories[id] = c
	return c, nil
}

func (v *refs) group(ctx context.Context, id uuid.UUID) (*storage.CategoryGroup, error) {
	g, err := v.r.CategoryGroup(ctx, id)
	if err != nil {
		return nil, unknown("category group", id, err)
	}
	if g.BudgetID != v.budgetID {
		return nil, crossBudget("category group", id, v.budgetID)
	}
	return g, nil
}

func (v *refs) payee(ctx context.Context, id uuid.UUID) (*storage.Payee, error) {
	if p, ok := v.payees[id]; ok {
		return p, nil
	}
	p, err := v.r.Payee(ctx, id)
	if err != nil {
		return nil, unknown("payee", id, err)
	}
	if p.BudgetID != v.budgetID {
		return nil, crossBudget("payee", id, v.budgetID)
	}
	v.payees[id] = p
	return p, nil
}

// transactionRefs checks the account and the optional category and payee of a
// transaction.
func (v *refs) transactionRefs(ctx context.Context, accountID uuid.UUID, categoryID, payeeID *uuid.UUID) error {
	if _, err := v.account(ctx, accountID); err != nil {
		return err
	}
	if categoryID != nil {
		if _, err := v.category(ctx, *categoryID); err != nil {
			return err
		}
	}
	if payeeID != nil {
		if _, err := v.payee(ctx, *payeeID); err != nil {
			return err
		}
	}
	return nil
}

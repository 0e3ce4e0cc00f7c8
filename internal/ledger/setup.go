package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

const (
	defaultCurrency     = "USD"
	startingBalanceMemo = "Starting Balance"
)

func newID() (uuid.UUID, error) {
	return uuid.NewV4()
}

func requireName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name is required", ErrInvalidInput, kind)
	}
	return name, nil
}

func (p *Processor) CreateBudget(ctx context.Context, w storage.Writer, name, currency string) (*storage.Budget, error) {
	name, err := requireName("budget", name)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = defaultCurrency
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	b := &storage.Budget{ID: id, Name: name, Currency: strings.ToUpper(currency)}
	if err := w.InsertBudget(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewAccount describes an account to open. A non-zero StartingBalance is
// booked as an unbudgeted transaction dated OpenedOn.
type NewAccount struct {
	Name            string
	Type            storage.AccountType
	StartingBalance money.Money
	OpenedOn        time.Time
}

func (p *Processor) CreateAccount(ctx context.Context, w storage.Writer, budgetID uuid.UUID, in NewAccount) (*storage.Account, *Effects, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, nil, err
	}
	name, err := requireName("account", in.Name)
	if err != nil {
		return nil, nil, err
	}
	if in.Type < storage.AccountTypeCash || in.Type > storage.AccountTypeAssets {
		return nil, nil, fmt.Errorf("%w: unknown account type %d", ErrInvalidInput, in.Type)
	}
	id, err := newID()
	if err != nil {
		return nil, nil, err
	}
	account := &storage.Account{ID: id, BudgetID: budgetID, Name: name, Type: in.Type}
	if err := w.InsertAccount(ctx, account); err != nil {
		return nil, nil, err
	}
	if in.StartingBalance.IsZero() {
		return account, newEffects(), nil
	}

	openedOn := in.OpenedOn
	if openedOn.IsZero() {
		openedOn = time.Now().UTC()
	}
	_, eff, err := p.CreateTransaction(ctx, w, budgetID, NewTransaction{
		AccountID: id,
		Amount:    in.StartingBalance,
		Date:      openedOn,
		Memo:      startingBalanceMemo,
	})
	if err != nil {
		return nil, nil, err
	}
	account.Balance = in.StartingBalance
	return account, eff, nil
}

func (p *Processor) CreatePayee(ctx context.Context, w storage.Writer, budgetID uuid.UUID, name string) (*storage.Payee, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	name, err := requireName("payee", name)
	if err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	payee := &storage.Payee{ID: id, BudgetID: budgetID, Name: name}
	return payee, w.InsertPayee(ctx, payee)
}

func (p *Processor) CreateCategoryGroup(ctx context.Context, w storage.Writer, budgetID uuid.UUID, name string, order int) (*storage.CategoryGroup, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	name, err := requireName("category group", name)
	if err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	group := &storage.CategoryGroup{ID: id, BudgetID: budgetID, Name: name, Order: order}
	return group, w.InsertCategoryGroup(ctx, group)
}

// NewCategory describes a category to create. A nil FirstMonth starts the
// balance chain at the current month.
type NewCategory struct {
	GroupID    uuid.UUID
	Name       string
	Order      int
	Hidden     bool
	FirstMonth *month.Month
}

func (p *Processor) CreateCategory(ctx context.Context, w storage.Writer, budgetID uuid.UUID, in NewCategory) (*storage.Category, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	name, err := requireName("category", in.Name)
	if err != nil {
		return nil, err
	}
	if _, err := newRefs(w, budgetID).group(ctx, in.GroupID); err != nil {
		return nil, err
	}
	first := month.Of(time.Now())
	if in.FirstMonth != nil {
		first = *in.FirstMonth
	}
	if err := checkMonth("first month", first); err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	category := &storage.Category{
		ID:         id,
		BudgetID:   budgetID,
		GroupID:    in.GroupID,
		Name:       name,
		Order:      in.Order,
		Hidden:     in.Hidden,
		FirstMonth: first,
	}
	return category, w.InsertCategory(ctx, category)
}

// CategoryChange replaces a category's group, name, order and hidden flag.
// Hiding a category only affects how it is listed; its balance chain and any
// budgeted money stay where they are.
type CategoryChange struct {
	ID      uuid.UUID
	GroupID uuid.UUID
	Name    string
	Order   int
	Hidden  bool
}

func (p *Processor) UpdateCategory(ctx context.Context, w storage.Writer, budgetID uuid.UUID, change CategoryChange) (*storage.Category, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	name, err := requireName("category", change.Name)
	if err != nil {
		return nil, err
	}
	v := newRefs(w, budgetID)
	category, err := v.category(ctx, change.ID)
	if err != nil {
		return nil, err
	}
	if _, err := v.group(ctx, change.GroupID); err != nil {
		return nil, err
	}
	updated := *category
	updated.GroupID, updated.Name, updated.Order, updated.Hidden = change.GroupID, name, change.Order, change.Hidden
	if err := w.UpdateCategory(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (p *Processor) UpdateCategoryGroup(ctx context.Context, w storage.Writer, budgetID, groupID uuid.UUID, name string, order int) (*storage.CategoryGroup, error) {
	if _, err := lookupBudget(ctx, w, budgetID); err != nil {
		return nil, err
	}
	name, err := requireName("category group", name)
	if err != nil {
		return nil, err
	}
	group, err := newRefs(w, budgetID).group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Name, group.Order = name, order
	return group, w.UpdateCategoryGroup(ctx, group)
}

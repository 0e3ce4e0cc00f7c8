package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

const defaultAccountLimit = 20

// AccountService handles account business logic.
type AccountService struct {
	base
}

// NewAccountService creates a new AccountService.
func NewAccountService(store storage.Store, op actionProcessor, proc *ledger.Processor) *AccountService {
	return &AccountService{base{store: store, operator: op, processor: proc}}
}

// CreateAccount opens an account. A non-zero starting balance is booked as
// unbudgeted income.
func (s *AccountService) CreateAccount(ctx context.Context, budgetID uuid.UUID, account NewAccount) (Account, error) {
	action := &actions.CreateAccount{
		Base: s.action(budgetID),
		Account: ledger.NewAccount{
			Name:            account.Name,
			Type:            accountTypeToStorage(account.Type),
			StartingBalance: account.StartingBalance,
			OpenedOn:        account.OpenedOn,
		},
	}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return Account{}, err
	}
	return accountFromStorage(action.Result), nil
}

// GetAccount retrieves an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	row, err := s.store.Account(ctx, id)
	if err != nil {
		return nil, err
	}
	account := accountFromStorage(row)
	return &account, nil
}

// ListAccounts returns a page of the budget's accounts using cursor pagination.
func (s *AccountService) ListAccounts(ctx context.Context, budgetID uuid.UUID, cursor *AccountCursor) ([]Account, *AccountCursor, error) {
	limit := defaultAccountLimit
	offset := 0
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
	}

	filter := &storage.AccountFilter{
		BudgetID: budgetID,
		Limit:    limit,
		Offset:   offset,
	}

	var nextCursor *AccountCursor
	accounts, err := s.store.ListAccounts(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	if len(accounts) == 0 {
		return nil, nil, nil
	}

	if len(accounts) > limit {
		accounts = accounts[:limit]
		nextCursor = &AccountCursor{
			Position: offset + limit,
			Limit:    limit,
		}
	}

	convertedAccounts := make([]Account, len(accounts))
	for i, account := range accounts {
		convertedAccounts[i] = accountFromStorage(account)
	}

	return convertedAccounts, nextCursor, nil
}

package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

const defaultLimit = 20

// TransactionService handles transaction business logic.
type TransactionService struct {
	base
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store storage.Store, op actionProcessor, proc *ledger.Processor) *TransactionService {
	return &TransactionService{base{store: store, operator: op, processor: proc}}
}

// CreateTransaction creates one transaction and returns it.
func (s *TransactionService) CreateTransaction(ctx context.Context, budgetID uuid.UUID, transaction Transaction) (Transaction, error) {
	created, err := s.CreateTransactions(ctx, budgetID, []Transaction{transaction})
	if err != nil {
		return Transaction{}, err
	}
	return created[0], nil
}

// CreateTransactions creates every transaction or none of them.
func (s *TransactionService) CreateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []Transaction) ([]Transaction, error) {
	items := make([]ledger.NewTransaction, len(transactions))
	for i, t := range transactions {
		items[i] = ledger.NewTransaction{
			ID:         t.ID,
			AccountID:  t.AccountID,
			CategoryID: t.CategoryID,
			PayeeID:    t.PayeeID,
			Amount:     t.Amount,
			Date:       t.Date,
			Memo:       t.Memo,
		}
	}
	action := &actions.CreateTransactions{Base: s.action(budgetID), Transactions: items}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return nil, err
	}
	return transactionsFromStorage(action.Result), nil
}

// UpdateTransaction replaces the mutable fields of one transaction.
func (s *TransactionService) UpdateTransaction(ctx context.Context, budgetID uuid.UUID, transaction Transaction) (Transaction, error) {
	updated, err := s.UpdateTransactions(ctx, budgetID, []Transaction{transaction})
	if err != nil {
		return Transaction{}, err
	}
	return updated[0], nil
}

// UpdateTransactions applies every update or none of them.
func (s *TransactionService) UpdateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []Transaction) ([]Transaction, error) {
	changes := make([]ledger.TransactionUpdate, len(transactions))
	for i, t := range transactions {
		changes[i] = ledger.TransactionUpdate{
			ID:         t.ID,
			AccountID:  t.AccountID,
			CategoryID: t.CategoryID,
			PayeeID:    t.PayeeID,
			Amount:     t.Amount,
			Date:       t.Date,
			Memo:       t.Memo,
		}
	}
	action := &actions.UpdateTransactions{Base: s.action(budgetID), Changes: changes}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return nil, err
	}
	return transactionsFromStorage(action.Result), nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, budgetID, id uuid.UUID) error {
	return s.DeleteTransactions(ctx, budgetID, []uuid.UUID{id})
}

// DeleteTransactions deletes every listed transaction or none of them.
func (s *TransactionService) DeleteTransactions(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error {
	return s.operator.Process(ctx, budgetID, &actions.DeleteTransactions{Base: s.action(budgetID), IDs: ids})
}

// ListTransactions returns a page of the budget's transactions, newest first,
// using cursor-based pagination.
func (s *TransactionService) ListTransactions(ctx context.Context, budgetID uuid.UUID, filter TransactionFilter, cursor *TransactionCursor) ([]Transaction, *TransactionCursor, error) {
	limit := defaultLimit
	offset := 0
	var maxCreationTime *time.Time
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
		maxCreationTime = &cursor.MaxCreationTime
	}

	rows, err := s.store.ListTransactions(ctx, &storage.TransactionFilter{
		BudgetID:        budgetID,
		AccountID:       filter.AccountID,
		CategoryID:      filter.CategoryID,
		Limit:           limit,
		Offset:          offset,
		MaxCreationTime: maxCreationTime,
	})
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	var nextCursor *TransactionCursor
	if len(rows) > limit {
		rows = rows[:limit]

		cursorMaxCreationTime := rows[0].CreatedAt
		if maxCreationTime != nil {
			cursorMaxCreationTime = *maxCreationTime
		}

		nextCursor = &TransactionCursor{
			Position:        offset + limit,
			Limit:           limit,
			MaxCreationTime: cursorMaxCreationTime,
		}
	}

	return transactionsFromStorage(rows), nextCursor, nil
}

package transaction

import (
	"context"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/budget-ledger/internal/service"
)

type mockTransactionService struct {
	mock.Mock
}

func (m *mockTransactionService) CreateTransaction(ctx context.Context, budgetID uuid.UUID, transaction service.Transaction) (service.Transaction, error) {
	args := m.Called(ctx, budgetID, transaction)
	return args.Get(0).(service.Transaction), args.Error(1)
}

func (m *mockTransactionService) CreateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []service.Transaction) ([]service.Transaction, error) {
	args := m.Called(ctx, budgetID, transactions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Transaction), args.Error(1)
}

func (m *mockTransactionService) UpdateTransaction(ctx context.Context, budgetID uuid.UUID, transaction service.Transaction) (service.Transaction, error) {
	args := m.Called(ctx, budgetID, transaction)
	return args.Get(0).(service.Transaction), args.Error(1)
}

func (m *mockTransactionService) UpdateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []service.Transaction) ([]service.Transaction, error) {
	args := m.Called(ctx, budgetID, transactions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Transaction), args.Error(1)
}

func (m *mockTransactionService) DeleteTransaction(ctx context.Context, budgetID, id uuid.UUID) error {
	return m.Called(ctx, budgetID, id).Error(0)
}

func (m *mockTransactionService) DeleteTransactions(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error {
	return m.Called(ctx, budgetID, ids).Error(0)
}

func (m *mockTransactionService) ListTransactions(ctx context.Context, budgetID uuid.UUID, filter service.TransactionFilter, cursor *service.TransactionCursor) ([]service.Transaction, *service.TransactionCursor, error) {
	args := m.Called(ctx, budgetID, filter, cursor)
	var txs []service.Transaction
	if v := args.Get(0); v != nil {
		txs = v.([]service.Transaction)
	}
	var next *service.TransactionCursor
	if v := args.Get(1); v != nil {
		next = v.(*service.TransactionCursor)
	}
	return txs, next, args.Error(2)
}

// newTestAPI registers every transaction handler against a humatest API.
func newTestAPI(t *testing.T, svc *mockTransactionService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateTransactionHandler(svc).Register(api)
	NewUpdateTransactionHandler(svc).Register(api)
	NewDeleteTransactionHandler(svc).Register(api)
	NewListTransactionsHandler(svc).Register(api)
	return api
}

package service

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
)

func TestCreateTransaction_MovesCategoryAndAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 100000)
	groceries := env.category(t, "Groceries", "2024-01")

	_, err := env.svc.Category.SetCategoryAssignment(ctx, env.budget, groceries.ID, month.MustParse("2024-01"), 40000)
	require.NoError(t, err)

	created, err := env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
		AccountID:  account.ID,
		CategoryID: ptr(groceries.ID),
		Amount:     -12500,
		Date:       date("2024-01-15"),
		Memo:       "market",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	cm, err := env.svc.Category.GetCategoryMonth(ctx, env.budget, groceries.ID, month.MustParse("2024-02"))
	require.NoError(t, err)
	assert.Equal(t, money.Money(27500), cm.Balance)

	stored, err := env.svc.Account.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(87500), stored.Balance)
}

func TestCreateTransactions_AllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0)

	_, err := env.svc.Transaction.CreateTransactions(ctx, env.budget, []Transaction{
		{AccountID: account.ID, Amount: 500, Date: date("2024-01-02")},
		{AccountID: uuid.Must(uuid.NewV4()), Amount: 500, Date: date("2024-01-02")},
	})
	assert.ErrorIs(t, err, ledger.ErrUnknownEntity)

	rows, _, err := env.svc.Transaction.ListTransactions(ctx, env.budget, TransactionFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUpdateTransaction_Recategorizes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0)
	rent := env.category(t, "Rent", "2024-01")

	created, err := env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
		AccountID: account.ID, Amount: -900, Date: date("2024-03-01"),
	})
	require.NoError(t, err)

	created.CategoryID = ptr(rent.ID)
	updated, err := env.svc.Transaction.UpdateTransaction(ctx, env.budget, created)
	require.NoError(t, err)
	assert.Equal(t, rent.ID, *updated.CategoryID)

	cm, err := env.svc.Category.GetCategoryMonth(ctx, env.budget, rent.ID, month.MustParse("2024-03"))
	require.NoError(t, err)
	assert.Equal(t, money.Money(-900), cm.Activity)

	report, err := env.svc.Budget.VerifyToBeBudgeted(ctx, env.budget)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, money.Money(0), report.Stored)
}

func TestDeleteTransaction_RestoresBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 1000)

	created, err := env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
		AccountID: account.ID, Amount: 300, Date: date("2024-02-01"),
	})
	require.NoError(t, err)
	require.NoError(t, env.svc.Transaction.DeleteTransaction(ctx, env.budget, created.ID))

	stored, err := env.svc.Account.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(1000), stored.Balance)
}

func TestListTransactions_CursorKeepsCreationBound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0)
	for i := 0; i < 3; i++ {
		_, err := env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
			AccountID: account.ID, Amount: 1, Date: date("2024-02-01"),
		})
		require.NoError(t, err)
	}

	first, cursor, err := env.svc.Transaction.ListTransactions(ctx, env.budget, TransactionFilter{}, &TransactionCursor{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, 2, cursor.Position)

	bound := cursor.MaxCreationTime
	_, err = env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
		AccountID: account.ID, Amount: 1, Date: date("2024-02-01"),
	})
	require.NoError(t, err)

	rest, next, err := env.svc.Transaction.ListTransactions(ctx, env.budget, TransactionFilter{}, cursor)
	require.NoError(t, err)
	assert.Nil(t, next)
	for _, tx := range rest {
		assert.False(t, tx.CreatedAt.After(bound))
	}
}

func TestListTransactions_FiltersByCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0)
	rent := env.category(t, "Rent", "2024-01")

	_, err := env.svc.Transaction.CreateTransactions(ctx, env.budget, []Transaction{
		{AccountID: account.ID, CategoryID: ptr(rent.ID), Amount: -900, Date: date("2024-01-03")},
		{AccountID: account.ID, Amount: 2000, Date: date("2024-01-03")},
	})
	require.NoError(t, err)

	rows, _, err := env.svc.Transaction.ListTransactions(ctx, env.budget, TransactionFilter{CategoryID: ptr(rent.ID)}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, money.Money(-900), rows[0].Amount)
}

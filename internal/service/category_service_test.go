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

func TestSetCategoryAssignment_ReturnsProjection(t *testing.T) {
	env := newTestEnv(t)
	rent := env.category(t, "Rent", "2024-01")

	cm, err := env.svc.Category.SetCategoryAssignment(context.Background(), env.budget, rent.ID, month.MustParse("2024-02"), 900)
	require.NoError(t, err)
	assert.Equal(t, money.Money(900), cm.Budgeted)
	assert.Equal(t, money.Money(900), cm.Balance)

	b, err := env.svc.Budget.GetBudget(context.Background(), env.budget)
	require.NoError(t, err)
	assert.Equal(t, money.Money(-900), b.ToBeBudgeted)
}

func TestGetCategoryMonth_OtherBudgetIsUnknown(t *testing.T) {
	env := newTestEnv(t)
	rent := env.category(t, "Rent", "2024-01")
	other, err := env.svc.Budget.CreateBudget(context.Background(), "Other", "")
	require.NoError(t, err)

	_, err = env.svc.Category.GetCategoryMonth(context.Background(), other.ID, rent.ID, month.MustParse("2024-01"))
	assert.ErrorIs(t, err, ledger.ErrUnknownEntity)

	_, err = env.svc.Category.GetCategoryMonth(context.Background(), env.budget, uuid.Must(uuid.NewV4()), month.MustParse("2024-01"))
	assert.ErrorIs(t, err, ledger.ErrUnknownEntity)
}

func TestCreateCategory_GroupFromOtherBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other, err := env.svc.Budget.CreateBudget(ctx, "Other", "")
	require.NoError(t, err)
	group, err := env.svc.Category.CreateCategoryGroup(ctx, other.ID, "Bills", 1)
	require.NoError(t, err)

	_, err = env.svc.Category.CreateCategory(ctx, env.budget, NewCategory{GroupID: group.ID, Name: "Rent"})
	assert.ErrorIs(t, err, ledger.ErrCrossBudgetReference)
}

func TestDeleteCategory_ReleasesToToBeBudgeted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rent := env.category(t, "Rent", "2024-01")
	_, err := env.svc.Category.SetCategoryAssignment(ctx, env.budget, rent.ID, month.MustParse("2024-01"), 400)
	require.NoError(t, err)

	require.NoError(t, env.svc.Category.DeleteCategory(ctx, env.budget, rent.ID, nil))

	b, err := env.svc.Budget.GetBudget(ctx, env.budget)
	require.NoError(t, err)
	assert.True(t, b.ToBeBudgeted.IsZero())

	_, err = env.svc.Category.GetCategoryMonth(ctx, env.budget, rent.ID, month.MustParse("2024-01"))
	assert.ErrorIs(t, err, ledger.ErrUnknownEntity)
}

func TestDeleteCategory_ReassignsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := env.account(t, 0)
	rent := env.category(t, "Rent", "2024-01")
	housing := env.category(t, "Housing", "2024-01")
	jan := month.MustParse("2024-01")

	_, err := env.svc.Category.SetCategoryAssignment(ctx, env.budget, rent.ID, jan, 900)
	require.NoError(t, err)
	_, err = env.svc.Transaction.CreateTransaction(ctx, env.budget, Transaction{
		AccountID: account.ID, CategoryID: ptr(rent.ID), Amount: -850, Date: date("2024-01-05"),
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Category.DeleteCategory(ctx, env.budget, rent.ID, ptr(housing.ID)))

	cm, err := env.svc.Category.GetCategoryMonth(ctx, env.budget, housing.ID, jan)
	require.NoError(t, err)
	assert.Equal(t, money.Money(900), cm.Budgeted)
	assert.Equal(t, money.Money(-850), cm.Activity)
	assert.Equal(t, money.Money(50), cm.Balance)
}

func TestUpdateCategory_MovesBetweenGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rent := env.category(t, "Rent", "2024-01")
	bills, err := env.svc.Category.CreateCategoryGroup(ctx, env.budget, "Bills", 1)
	require.NoError(t, err)

	got, err := env.svc.Category.UpdateCategory(ctx, env.budget, CategoryChange{
		ID: rent.ID, GroupID: bills.ID, Name: "Housing", Order: 3, Hidden: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Housing", got.Name)
	assert.Equal(t, bills.ID, got.GroupID)
	assert.True(t, got.Hidden)
	assert.Equal(t, rent.FirstMonth, got.FirstMonth)

	grouped, err := env.svc.Category.ListCategories(ctx, env.budget)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Empty(t, grouped[0].Categories)
	assert.Equal(t, "Bills", grouped[1].Name)
	require.Len(t, grouped[1].Categories, 1)
	assert.Equal(t, rent.ID, grouped[1].Categories[0].ID)
}

func TestUpdateCategoryGroup_Renames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group, err := env.svc.Category.CreateCategoryGroup(ctx, env.budget, "Bills", 1)
	require.NoError(t, err)

	got, err := env.svc.Category.UpdateCategoryGroup(ctx, env.budget, group.ID, "Fixed costs", 4)
	require.NoError(t, err)
	assert.Equal(t, "Fixed costs", got.Name)
	assert.Equal(t, 4, got.Order)

	other, err := env.svc.Budget.CreateBudget(ctx, "Other", "")
	require.NoError(t, err)
	_, err = env.svc.Category.UpdateCategoryGroup(ctx, other.ID, group.ID, "Stolen", 0)
	assert.ErrorIs(t, err, ledger.ErrCrossBudgetReference)
}

func TestListCategories_UnknownBudget(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Category.ListCategories(context.Background(), uuid.Must(uuid.NewV4()))
	assert.Error(t, err)
}

func TestGetCategoryMonths_CarriesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rent := env.category(t, "Rent", "2024-01")
	_, err := env.svc.Category.SetCategoryAssignment(ctx, env.budget, rent.ID, month.MustParse("2024-01"), 500)
	require.NoError(t, err)

	got, err := env.svc.Category.GetCategoryMonths(ctx, env.budget, rent.ID, month.MustParse("2023-12"), month.MustParse("2024-03"))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, month.MustParse("2023-12"), got[0].Month)
	assert.True(t, got[0].Balance.IsZero())
	for _, cm := range got[1:] {
		assert.Equal(t, money.Money(500), cm.Balance, cm.Month.String())
	}
	assert.Equal(t, month.MustParse("2024-03"), got[3].Month)

	_, err = env.svc.Category.GetCategoryMonths(ctx, env.budget, rent.ID, month.MustParse("2024-03"), month.MustParse("2024-01"))
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/money"
)

func TestAuditToBeBudgeted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.account(t, 700)

	other, err := env.svc.Budget.CreateBudget(ctx, "Cabin", "EUR")
	require.NoError(t, err)

	tx, err := env.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetToBeBudgeted(ctx, env.budget, 5))
	require.NoError(t, tx.Commit(ctx))

	reports, err := env.svc.Budget.AuditToBeBudgeted(ctx, false)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	byBudget := map[string]ToBeBudgetedReport{}
	for _, r := range reports {
		byBudget[r.BudgetID.String()] = r
	}
	assert.False(t, byBudget[env.budget.String()].Consistent)
	assert.Equal(t, money.Money(700), byBudget[env.budget.String()].Recomputed)
	assert.True(t, byBudget[other.ID.String()].Consistent)

	stillDrifted, err := env.svc.Budget.VerifyToBeBudgeted(ctx, env.budget)
	require.NoError(t, err)
	assert.False(t, stillDrifted.Consistent, "audit without repair must not write")

	_, err = env.svc.Budget.AuditToBeBudgeted(ctx, true)
	require.NoError(t, err)
	fixed, err := env.svc.Budget.VerifyToBeBudgeted(ctx, env.budget)
	require.NoError(t, err)
	assert.True(t, fixed.Consistent)
	assert.Equal(t, money.Money(700), fixed.Stored)
}

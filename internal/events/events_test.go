package events

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
)

func TestNewLedgerChanged(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	categoryID := uuid.Must(uuid.NewV4())
	eff := &ledger.Effects{
		ToBeBudgetedDelta: -300,
		Invalidated:       map[uuid.UUID]month.Month{categoryID: month.MustParse("2024-02")},
	}

	ev := NewLedgerChanged(budgetID, "SetCategoryAssignment", eff)
	assert.Equal(t, budgetID, ev.BudgetID)
	assert.Equal(t, money.Money(-300), ev.ToBeBudgetedDelta)
	assert.Equal(t, []Invalidation{{CategoryID: categoryID, FromMonth: month.MustParse("2024-02")}}, ev.Invalidated)
	assert.False(t, ev.Timestamp.IsZero())

	empty := NewLedgerChanged(budgetID, "CreateBudget", nil)
	assert.NotNil(t, empty.Invalidated)
	assert.Empty(t, empty.Invalidated)
}

func TestLogPublisher(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewLogPublisher(logger)

	require.NoError(t, p.Publish(context.Background(), LedgerChanged{Operation: "DeleteTransactions", ToBeBudgetedDelta: 12}))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Events.LedgerChanged", entry.Message)
	assert.Equal(t, "DeleteTransactions", entry.Data["operation"])
	assert.Equal(t, int64(12), entry.Data["toBeBudgetedDelta"])
	assert.NoError(t, p.Close())
}

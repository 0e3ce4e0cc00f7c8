package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/operator"
	"github.com/carson-networks/budget-ledger/internal/storage/memory"
)

type testEnv struct {
	svc    *Service
	store  *memory.Store
	budget uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	delegator := operator.NewOperatorDelegator(store, nil, logger, 8, time.Minute)
	t.Cleanup(delegator.Stop)

	env := &testEnv{
		svc:   NewService(store, delegator, ledger.NewProcessor(ledger.NewEngine(logger))),
		store: store,
	}
	b, err := env.svc.Budget.CreateBudget(context.Background(), "Home", "")
	require.NoError(t, err)
	env.budget = b.ID
	return env
}

func (e *testEnv) account(t *testing.T, starting int64) Account {
	t.Helper()
	a, err := e.svc.Account.CreateAccount(context.Background(), e.budget, NewAccount{
		Name:            "Checking",
		StartingBalance: moneyOf(starting),
		OpenedOn:        date("2024-01-01"),
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) category(t *testing.T, name string, first string) Category {
	t.Helper()
	ctx := context.Background()
	g, err := e.svc.Category.CreateCategoryGroup(ctx, e.budget, "Everyday", 0)
	require.NoError(t, err)
	c, err := e.svc.Category.CreateCategory(ctx, e.budget, NewCategory{GroupID: g.ID, Name: name, FirstMonth: ptr(month.MustParse(first))})
	require.NoError(t, err)
	return c
}

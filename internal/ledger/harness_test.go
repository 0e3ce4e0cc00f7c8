package ledger

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
	"github.com/carson-networks/budget-ledger/internal/storage/memory"
)

type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *memory.Store
	engine  *Engine
	proc    *Processor
	budget  uuid.UUID
	account uuid.UUID
	group   uuid.UUID
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	engine := NewEngine(quietLogger())
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		store:  memory.NewStore(),
		engine: engine,
		proc:   NewProcessor(engine),
	}
	h.seedBudget()
	return h
}

// sibling returns a harness for a second budget in the same store.
func (h *harness) sibling() *harness {
	s := &harness{t: h.t, ctx: h.ctx, store: h.store, engine: h.engine, proc: h.proc}
	s.seedBudget()
	return s
}

func (h *harness) seedBudget() {
	h.mustWrite(func(w storage.Writer) error {
		b, err := h.proc.CreateBudget(h.ctx, w, "Household", "usd")
		if err != nil {
			return err
		}
		h.budget = b.ID
		a, _, err := h.proc.CreateAccount(h.ctx, w, b.ID, NewAccount{Name: "Checking", Type: storage.AccountTypeCash})
		if err != nil {
			return err
		}
		h.account = a.ID
		g, err := h.proc.CreateCategoryGroup(h.ctx, w, b.ID, "Monthly", 1)
		if err != nil {
			return err
		}
		h.group = g.ID
		return nil
	})
}

// write runs fn in a store transaction, committing on success.
func (h *harness) write(fn func(w storage.Writer) error) error {
	h.t.Helper()
	tx, err := h.store.Begin(h.ctx)
	require.NoError(h.t, err)
	if err := fn(tx); err != nil {
		require.NoError(h.t, tx.Rollback(h.ctx))
		return err
	}
	require.NoError(h.t, tx.Commit(h.ctx))
	return nil
}

func (h *harness) mustWrite(fn func(w storage.Writer) error) {
	h.t.Helper()
	require.NoError(h.t, h.write(fn))
}

func (h *harness) category(name, first string) uuid.UUID {
	h.t.Helper()
	var id uuid.UUID
	h.mustWrite(func(w storage.Writer) error {
		c, err := h.proc.CreateCategory(h.ctx, w, h.budget, NewCategory{
			GroupID: h.group, Name: name, FirstMonth: monthPtr(first),
		})
		if err != nil {
			return err
		}
		id = c.ID
		return nil
	})
	return id
}

func (h *harness) assign(categoryID uuid.UUID, m string, amount int64) *Effects {
	h.t.Helper()
	var eff *Effects
	h.mustWrite(func(w storage.Writer) (err error) {
		eff, err = h.proc.SetCategoryAssignment(h.ctx, w, h.budget, categoryID, month.MustParse(m), money.Money(amount))
		return err
	})
	return eff
}

func (h *harness) spend(categoryID *uuid.UUID, day string, amount int64) uuid.UUID {
	h.t.Helper()
	var id uuid.UUID
	h.mustWrite(func(w storage.Writer) error {
		row, _, err := h.proc.CreateTransaction(h.ctx, w, h.budget, NewTransaction{
			AccountID: h.account, CategoryID: categoryID, Amount: money.Money(amount), Date: date(day),
		})
		if err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	return id
}

func (h *harness) project(categoryID uuid.UUID, m string) storage.CategoryMonth {
	h.t.Helper()
	cm, err := h.engine.ProjectCategoryMonth(h.ctx, h.store, categoryID, month.MustParse(m))
	require.NoError(h.t, err)
	return cm
}

func (h *harness) scratch(categoryID uuid.UUID, m month.Month) storage.CategoryMonth {
	h.t.Helper()
	cm, err := h.engine.RecomputeCategoryMonth(h.ctx, h.store, categoryID, m)
	require.NoError(h.t, err)
	return cm
}

func (h *harness) storedToBeBudgeted() money.Money {
	h.t.Helper()
	b, err := h.store.Budget(h.ctx, h.budget)
	require.NoError(h.t, err)
	return b.ToBeBudgeted
}

func (h *harness) accountBalance() money.Money {
	h.t.Helper()
	a, err := h.store.Account(h.ctx, h.account)
	require.NoError(h.t, err)
	return a.Balance
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}

func monthPtr(s string) *month.Month {
	m := month.MustParse(s)
	return &m
}

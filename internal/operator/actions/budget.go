package actions

import (
	"context"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// CreateBudget runs on the uuid.Nil queue since the budget has no ID yet.
type CreateBudget struct {
	Processor *ledger.Processor
	Budget    string
	Currency  string

	Result *storage.Budget
}

func (c *CreateBudget) Name() string { return "CreateBudget" }

func (c *CreateBudget) Perform(ctx context.Context, writer storage.Writer) (err error) {
	c.Result, err = c.Processor.CreateBudget(ctx, writer, c.Budget, c.Currency)
	return err
}

type CreatePayee struct {
	Base
	PayeeName string

	Result *storage.Payee
}

func (c *CreatePayee) Name() string { return "CreatePayee" }

func (c *CreatePayee) Perform(ctx context.Context, writer storage.Writer) (err error) {
	c.Result, err = c.Processor.CreatePayee(ctx, writer, c.BudgetID, c.PayeeName)
	return err
}

// RepairToBeBudgeted overwrites a drifted To Be Budgeted with a
// recomputation.
type RepairToBeBudgeted struct {
	Base

	Result ledger.ToBeBudgetedCheck
}

func (r *RepairToBeBudgeted) Name() string { return "RepairToBeBudgeted" }

func (r *RepairToBeBudgeted) Perform(ctx context.Context, writer storage.Writer) error {
	check, err := r.Processor.Engine().RepairToBeBudgeted(ctx, writer, r.BudgetID)
	if err != nil {
		return err
	}
	r.Result = check
	if !check.Consistent() {
		delta, err := check.Recomputed.Sub(check.Stored)
		if err != nil {
			return err
		}
		r.Effects = &ledger.Effects{ToBeBudgetedDelta: delta}
	}
	return nil
}

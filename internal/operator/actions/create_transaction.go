package actions

import (
	"context"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// CreateTransactions inserts a batch of transactions; a single create is a
// batch of one.
type CreateTransactions struct {
	Base
	Transactions []ledger.NewTransaction

	Result []*storage.Transaction
}

func (t *CreateTransactions) Name() string { return "CreateTransactions" }

func (t *CreateTransactions) Perform(ctx context.Context, writer storage.Writer) error {
	rows, eff, err := t.Processor.CreateTransactions(ctx, writer, t.BudgetID, t.Transactions)
	if err != nil {
		return err
	}
	t.Result, t.Effects = rows, eff
	return nil
}

type UpdateTransactions struct {
	Base
	Changes []ledger.TransactionUpdate

	Result []*storage.Transaction
}

func (t *UpdateTransactions) Name() string { return "UpdateTransactions" }

func (t *UpdateTransactions) Perform(ctx context.Context, writer storage.Writer) error {
	rows, eff, err := t.Processor.UpdateTransactions(ctx, writer, t.BudgetID, t.Changes)
	if err != nil {
		return err
	}
	t.Result, t.Effects = rows, eff
	return nil
}

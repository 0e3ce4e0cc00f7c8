package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/storage"
)

type DeleteTransactions struct {
	Base
	IDs []uuid.UUID
}

func (t *DeleteTransactions) Name() string { return "DeleteTransactions" }

func (t *DeleteTransactions) Perform(ctx context.Context, writer storage.Writer) error {
	eff, err := t.Processor.DeleteTransactions(ctx, writer, t.BudgetID, t.IDs)
	if err != nil {
		return err
	}
	t.Effects = eff
	return nil
}

package actions

import (
	"context"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type CreateAccount struct {
	Base
	Account ledger.NewAccount

	Result *storage.Account
}

func (c *CreateAccount) Name() string { return "CreateAccount" }

func (c *CreateAccount) Perform(ctx context.Context, writer storage.Writer) error {
	account, eff, err := c.Processor.CreateAccount(ctx, writer, c.BudgetID, c.Account)
	if err != nil {
		return err
	}
	c.Result, c.Effects = account, eff
	return nil
}

package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type SetCategoryAssignment struct {
	Base
	CategoryID uuid.UUID
	Month      month.Month
	Amount     money.Money
}

func (a *SetCategoryAssignment) Name() string { return "SetCategoryAssignment" }

func (a *SetCategoryAssignment) Perform(ctx context.Context, writer storage.Writer) error {
	eff, err := a.Processor.SetCategoryAssignment(ctx, writer, a.BudgetID, a.CategoryID, a.Month, a.Amount)
	if err != nil {
		return err
	}
	a.Effects = eff
	return nil
}

// DeleteCategory removes a category, moving its history to ReassignTo or to
// To Be Budgeted when ReassignTo is nil.
type DeleteCategory struct {
	Base
	CategoryID uuid.UUID
	ReassignTo *uuid.UUID
}

func (d *DeleteCategory) Name() string { return "DeleteCategory" }

func (d *DeleteCategory) Perform(ctx context.Context, writer storage.Writer) error {
	eff, err := d.Processor.DeleteCategory(ctx, writer, d.BudgetID, d.CategoryID, d.ReassignTo)
	if err != nil {
		return err
	}
	d.Effects = eff
	return nil
}

type CreateCategoryGroup struct {
	Base
	GroupName string
	Order     int

	Result *storage.CategoryGroup
}

func (c *CreateCategoryGroup) Name() string { return "CreateCategoryGroup" }

func (c *CreateCategoryGroup) Perform(ctx context.Context, writer storage.Writer) (err error) {
	c.Result, err = c.Processor.CreateCategoryGroup(ctx, writer, c.BudgetID, c.GroupName, c.Order)
	return err
}

type CreateCategory struct {
	Base
	Category ledger.NewCategory

	Result *storage.Category
}

func (c *CreateCategory) Name() string { return "CreateCategory" }

func (c *CreateCategory) Perform(ctx context.Context, writer storage.Writer) (err error) {
	c.Result, err = c.Processor.CreateCategory(ctx, writer, c.BudgetID, c.Category)
	return err
}

type UpdateCategory struct {
	Base
	Change ledger.CategoryChange

	Result *storage.Category
}

func (u *UpdateCategory) Name() string { return "UpdateCategory" }

func (u *UpdateCategory) Perform(ctx context.Context, writer storage.Writer) (err error) {
	u.Result, err = u.Processor.UpdateCategory(ctx, writer, u.BudgetID, u.Change)
	return err
}

type UpdateCategoryGroup struct {
	Base
	GroupID   uuid.UUID
	GroupName string
	Order     int

	Result *storage.CategoryGroup
}

func (u *UpdateCategoryGroup) Name() string { return "UpdateCategoryGroup" }

func (u *UpdateCategoryGroup) Perform(ctx context.Context, writer storage.Writer) (err error) {
	u.Result, err = u.Processor.UpdateCategoryGroup(ctx, writer, u.BudgetID, u.GroupID, u.GroupName, u.Order)
	return err
}

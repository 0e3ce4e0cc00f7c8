package sqlconfig

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type groupRow struct {
	ID        uuid.UUID `db:"id"`
	BudgetID  uuid.UUID `db:"budget_id"`
	Name      string    `db:"name"`
	SortOrder int32     `db:"sort_order"`
}

type categoryRow struct {
	ID         uuid.UUID   `db:"id"`
	BudgetID   uuid.UUID   `db:"budget_id"`
	GroupID    uuid.UUID   `db:"group_id"`
	Name       string      `db:"name"`
	SortOrder  int32       `db:"sort_order"`
	Hidden     bool        `db:"hidden"`
	FirstMonth month.Month `db:"first_month"`
}

func (r categoryRow) toStorage() *storage.Category {
	return &storage.Category{
		ID:         r.ID,
		BudgetID:   r.BudgetID,
		GroupID:    r.GroupID,
		Name:       r.Name,
		Order:      int(r.SortOrder),
		Hidden:     r.Hidden,
		FirstMonth: r.FirstMonth,
	}
}

type assignmentRow struct {
	CategoryID uuid.UUID   `db:"category_id"`
	Month      month.Month `db:"month"`
	Amount     money.Money `db:"amount"`
}

var categoryColumns = []any{"id", "budget_id", "group_id", "name", "sort_order", "hidden", "first_month"}

// CategoriesTable provides access to category groups, categories and their
// monthly assignments.
type CategoriesTable struct {
	exec bob.Executor
}

func (t *CategoriesTable) FindGroup(ctx context.Context, id uuid.UUID) (*storage.CategoryGroup, error) {
	q := psql.Select(
		sm.Columns("id", "budget_id", "name", "sort_order"),
		sm.From("category_groups"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[groupRow]())
	if err != nil {
		return nil, translate("category group", id, err)
	}
	return &storage.CategoryGroup{ID: row.ID, BudgetID: row.BudgetID, Name: row.Name, Order: int(row.SortOrder)}, nil
}

// Groups returns a budget's category groups by order.
func (t *CategoriesTable) Groups(ctx context.Context, budgetID uuid.UUID) ([]*storage.CategoryGroup, error) {
	q := psql.Select(
		sm.Columns("id", "budget_id", "name", "sort_order"),
		sm.From("category_groups"),
		sm.Where(psql.Quote("budget_id").EQ(psql.Arg(budgetID))),
		sm.OrderBy(psql.Quote("sort_order")).Asc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[groupRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.CategoryGroup, len(rows))
	for i, row := range rows {
		result[i] = &storage.CategoryGroup{ID: row.ID, BudgetID: row.BudgetID, Name: row.Name, Order: int(row.SortOrder)}
	}
	return result, nil
}

func (t *CategoriesTable) UpdateGroup(ctx context.Context, g *storage.CategoryGroup) error {
	q := psql.Update(
		um.Table("category_groups"),
		um.SetCol("name").ToArg(g.Name),
		um.SetCol("sort_order").ToArg(int32(g.Order)),
		um.Where(psql.Quote("id").EQ(psql.Arg(g.ID))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("category group", g.ID, res, err)
}

func (t *CategoriesTable) InsertGroup(ctx context.Context, g *storage.CategoryGroup) error {
	q := psql.Insert(
		im.Into("category_groups", "id", "budget_id", "name", "sort_order"),
		im.Values(psql.Arg(g.ID, g.BudgetID, g.Name, int32(g.Order))),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("category group", g.ID, err)
}

func (t *CategoriesTable) FindByID(ctx context.Context, id uuid.UUID) (*storage.Category, error) {
	q := psql.Select(
		sm.Columns(categoryColumns...),
		sm.From("categories"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, translate("category", id, err)
	}
	return row.toStorage(), nil
}

// ForBudget returns a budget's categories by group order, then category order.
func (t *CategoriesTable) ForBudget(ctx context.Context, budgetID uuid.UUID) ([]*storage.Category, error) {
	q := psql.RawQuery(
		`SELECT c.id, c.budget_id, c.group_id, c.name, c.sort_order, c.hidden, c.first_month
		FROM categories c
		JOIN category_groups g ON g.id = c.group_id
		WHERE c.budget_id = ?
		ORDER BY g.sort_order, g.id, c.sort_order, c.name, c.id`,
		budgetID,
	)
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.Category, len(rows))
	for i, row := range rows {
		result[i] = row.toStorage()
	}
	return result, nil
}

func (t *CategoriesTable) Insert(ctx context.Context, c *storage.Category) error {
	q := psql.Insert(
		im.Into("categories", "id", "budget_id", "group_id", "name", "sort_order", "hidden", "first_month"),
		im.Values(psql.Arg(c.ID, c.BudgetID, c.GroupID, c.Name, int32(c.Order), c.Hidden, c.FirstMonth)),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("category", c.ID, err)
}

func (t *CategoriesTable) Update(ctx context.Context, c *storage.Category) error {
	q := psql.Update(
		um.Table("categories"),
		um.SetCol("group_id").ToArg(c.GroupID),
		um.SetCol("name").ToArg(c.Name),
		um.SetCol("sort_order").ToArg(int32(c.Order)),
		um.SetCol("hidden").ToArg(c.Hidden),
		um.Where(psql.Quote("id").EQ(psql.Arg(c.ID))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("category", c.ID, res, err)
}

func (t *CategoriesTable) SetFirstMonth(ctx context.Context, id uuid.UUID, m month.Month) error {
	q := psql.Update(
		um.Table("categories"),
		um.SetCol("first_month").ToArg(m),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("category", id, res, err)
}

// Delete removes the category. Its assignments and cache rows go with it.
func (t *CategoriesTable) Delete(ctx context.Context, id uuid.UUID) error {
	q := psql.Delete(
		dm.From("categories"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("category", id, res, err)
}

func (t *CategoriesTable) Assignment(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, bool, error) {
	q := psql.Select(
		sm.Columns("amount"),
		sm.From("category_assignments"),
		sm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
		sm.Where(psql.Quote("month").EQ(psql.Arg(m))),
	)
	amount, err := bob.One(ctx, t.exec, q, scan.SingleColumnMapper[money.Money])
	if errors.Is(err, sql.ErrNoRows) {
		return money.Zero, false, nil
	}
	if err != nil {
		return money.Zero, false, err
	}
	return amount, true, nil
}

func (t *CategoriesTable) Assignments(ctx context.Context, categoryID uuid.UUID) ([]storage.Assignment, error) {
	q := psql.Select(
		sm.Columns("category_id", "month", "amount"),
		sm.From("category_assignments"),
		sm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
		sm.OrderBy(psql.Quote("month")).Asc(),
	)
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[assignmentRow]())
	if err != nil {
		return nil, err
	}
	result := make([]storage.Assignment, len(rows))
	for i, row := range rows {
		result[i] = storage.Assignment{CategoryID: row.CategoryID, Month: row.Month, Amount: row.Amount}
	}
	return result, nil
}

// SetAssignment upserts the amount budgeted for (category, month).
func (t *CategoriesTable) SetAssignment(ctx context.Context, categoryID uuid.UUID, m month.Month, amount money.Money) error {
	q := psql.RawQuery(
		`INSERT INTO category_assignments (category_id, month, amount) VALUES (?, ?, ?)
		ON CONFLICT (category_id, month) DO UPDATE SET amount = EXCLUDED.amount`,
		categoryID, m, amount,
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("category", categoryID, err)
}

func (t *CategoriesTable) DeleteAssignments(ctx context.Context, categoryID uuid.UUID) error {
	q := psql.Delete(
		dm.From("category_assignments"),
		dm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return err
}

// SumAssignments totals a budget's assignments, up to upto when it is set.
func (t *CategoriesTable) SumAssignments(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	var q bob.Query
	if upto == nil {
		q = psql.RawQuery(
			`SELECT COALESCE(SUM(a.amount), 0)::text FROM category_assignments a
			JOIN categories c ON c.id = a.category_id
			WHERE c.budget_id = ?`,
			budgetID,
		)
	} else {
		q = psql.RawQuery(
			`SELECT COALESCE(SUM(a.amount), 0)::text FROM category_assignments a
			JOIN categories c ON c.id = a.category_id
			WHERE c.budget_id = ? AND a.month <= ?`,
			budgetID, *upto,
		)
	}
	total, err := bob.One(ctx, t.exec, q, scan.SingleColumnMapper[string])
	if err != nil {
		return money.Zero, err
	}
	return parseSum(total)
}

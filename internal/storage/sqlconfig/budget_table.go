package sqlconfig

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type budgetRow struct {
	ID           uuid.UUID   `db:"id"`
	Name         string      `db:"name"`
	Currency     string      `db:"currency"`
	ToBeBudgeted money.Money `db:"to_be_budgeted"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r budgetRow) toStorage() *storage.Budget {
	return &storage.Budget{
		ID:           r.ID,
		Name:         r.Name,
		Currency:     r.Currency,
		ToBeBudgeted: r.ToBeBudgeted,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type payeeRow struct {
	ID       uuid.UUID `db:"id"`
	BudgetID uuid.UUID `db:"budget_id"`
	Name     string    `db:"name"`
}

var budgetColumns = []any{"id", "name", "currency", "to_be_budgeted", "created_at"}

// BudgetsTable provides access to the budgets and payees tables.
type BudgetsTable struct {
	exec bob.Executor
}

func (t *BudgetsTable) FindByID(ctx context.Context, id uuid.UUID) (*storage.Budget, error) {
	q := psql.Select(
		sm.Columns(budgetColumns...),
		sm.From("budgets"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[budgetRow]())
	if err != nil {
		return nil, translate("budget", id, err)
	}
	return row.toStorage(), nil
}

func (t *BudgetsTable) List(ctx context.Context) ([]*storage.Budget, error) {
	q := psql.Select(
		sm.Columns(budgetColumns...),
		sm.From("budgets"),
		sm.OrderBy(psql.Quote("created_at")).Asc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[budgetRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.Budget, len(rows))
	for i, row := range rows {
		result[i] = row.toStorage()
	}
	return result, nil
}

func (t *BudgetsTable) Insert(ctx context.Context, b *storage.Budget) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	q := psql.Insert(
		im.Into("budgets", "id", "name", "currency", "to_be_budgeted", "created_at"),
		im.Values(psql.Arg(b.ID, b.Name, b.Currency, b.ToBeBudgeted, b.CreatedAt)),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("budget", b.ID, err)
}

func (t *BudgetsTable) AdjustToBeBudgeted(ctx context.Context, id uuid.UUID, delta money.Money) error {
	q := psql.Update(
		um.Table("budgets"),
		um.SetCol("to_be_budgeted").To(psql.Raw("to_be_budgeted + ?", delta)),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("budget", id, res, err)
}

func (t *BudgetsTable) SetToBeBudgeted(ctx context.Context, id uuid.UUID, amount money.Money) error {
	q := psql.Update(
		um.Table("budgets"),
		um.SetCol("to_be_budgeted").ToArg(amount),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("budget", id, res, err)
}

func (t *BudgetsTable) FindPayee(ctx context.Context, id uuid.UUID) (*storage.Payee, error) {
	q := psql.Select(
		sm.Columns("id", "budget_id", "name"),
		sm.From("payees"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[payeeRow]())
	if err != nil {
		return nil, translate("payee", id, err)
	}
	return &storage.Payee{ID: row.ID, BudgetID: row.BudgetID, Name: row.Name}, nil
}

// Payees returns a budget's payees by name.
func (t *BudgetsTable) Payees(ctx context.Context, budgetID uuid.UUID) ([]*storage.Payee, error) {
	q := psql.Select(
		sm.Columns("id", "budget_id", "name"),
		sm.From("payees"),
		sm.Where(psql.Quote("budget_id").EQ(psql.Arg(budgetID))),
		sm.OrderBy(psql.Quote("name")).Asc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[payeeRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.Payee, len(rows))
	for i, row := range rows {
		result[i] = &storage.Payee{ID: row.ID, BudgetID: row.BudgetID, Name: row.Name}
	}
	return result, nil
}

func (t *BudgetsTable) InsertPayee(ctx context.Context, p *storage.Payee) error {
	q := psql.Insert(
		im.Into("payees", "id", "budget_id", "name"),
		im.Values(psql.Arg(p.ID, p.BudgetID, p.Name)),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("payee", p.ID, err)
}

// now is truncated to what a timestamptz column keeps, so a value read back
// compares equal to the one written.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

package sqlconfig

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type accountRow struct {
	ID        uuid.UUID   `db:"id"`
	BudgetID  uuid.UUID   `db:"budget_id"`
	Name      string      `db:"name"`
	Type      int16       `db:"type"`
	Balance   money.Money `db:"balance"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r accountRow) toStorage() *storage.Account {
	return &storage.Account{
		ID:        r.ID,
		BudgetID:  r.BudgetID,
		Name:      r.Name,
		Type:      storage.AccountType(r.Type),
		Balance:   r.Balance,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

var accountColumns = []any{"id", "budget_id", "name", "type", "balance", "created_at"}

// AccountsTable provides access to the accounts table.
type AccountsTable struct {
	exec bob.Executor
}

// FindByID retrieves an account by primary key.
func (t *AccountsTable) FindByID(ctx context.Context, id uuid.UUID) (*storage.Account, error) {
	q := psql.Select(
		sm.Columns(accountColumns...),
		sm.From("accounts"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[accountRow]())
	if err != nil {
		return nil, translate("account", id, err)
	}
	return row.toStorage(), nil
}

// Insert creates the account with the ID the caller chose.
func (t *AccountsTable) Insert(ctx context.Context, a *storage.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	q := psql.Insert(
		im.Into("accounts", "id", "budget_id", "name", "type", "balance", "created_at"),
		im.Values(psql.Arg(a.ID, a.BudgetID, a.Name, int16(a.Type), a.Balance, a.CreatedAt)),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("account", a.ID, err)
}

// List returns one budget's accounts ordered by name. A positive limit fetches
// one extra row so callers can tell whether another page follows.
func (t *AccountsTable) List(ctx context.Context, filter *storage.AccountFilter) ([]*storage.Account, error) {
	var queryMods []bob.Mod[*dialect.SelectQuery]
	queryMods = append(queryMods, sm.Columns(accountColumns...), sm.From("accounts"))
	if filter != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("budget_id").EQ(psql.Arg(filter.BudgetID))))
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote("name")).Asc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)
	rows, err := bob.All(ctx, t.exec, psql.Select(queryMods...), scan.StructMapper[accountRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.Account, len(rows))
	for i, row := range rows {
		result[i] = row.toStorage()
	}
	return result, nil
}

// AdjustBalance moves the balance by delta. Overflow past BIGINT is reported
// as money.ErrArithmeticOverflow.
func (t *AccountsTable) AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Money) error {
	q := psql.Update(
		um.Table("accounts"),
		um.SetCol("balance").To(psql.Raw("balance + ?", delta)),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("account", id, res, err)
}

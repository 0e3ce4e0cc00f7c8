package sqlconfig

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type transactionRow struct {
	ID         uuid.UUID     `db:"id"`
	BudgetID   uuid.UUID     `db:"budget_id"`
	AccountID  uuid.UUID     `db:"account_id"`
	CategoryID uuid.NullUUID `db:"category_id"`
	PayeeID    uuid.NullUUID `db:"payee_id"`
	Amount     money.Money   `db:"amount"`
	Date       time.Time     `db:"date"`
	Memo       string        `db:"memo"`
	CreatedAt  time.Time     `db:"created_at"`
}

func (r transactionRow) toStorage() *storage.Transaction {
	y, m, d := r.Date.Date()
	return &storage.Transaction{
		ID:         r.ID,
		BudgetID:   r.BudgetID,
		AccountID:  r.AccountID,
		CategoryID: fromNull(r.CategoryID),
		PayeeID:    fromNull(r.PayeeID),
		Amount:     r.Amount,
		Date:       time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Memo:       r.Memo,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func toNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNull(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

// dateArg sends a calendar date as text so the session time zone cannot move
// it to a neighbouring day.
func dateArg(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

var transactionColumns = []any{
	"id", "budget_id", "account_id", "category_id", "payee_id", "amount", "date", "memo", "created_at",
}

// TransactionsTable provides access to the transactions table.
type TransactionsTable struct {
	exec bob.Executor
}

// FindByID retrieves a transaction by primary key.
func (t *TransactionsTable) FindByID(ctx context.Context, id uuid.UUID) (*storage.Transaction, error) {
	q := psql.Select(
		sm.Columns(transactionColumns...),
		sm.From("transactions"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, translate("transaction", id, err)
	}
	return row.toStorage(), nil
}

// Insert creates the transaction with the ID the caller chose.
func (t *TransactionsTable) Insert(ctx context.Context, tx *storage.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now()
	}
	q := psql.Insert(
		im.Into("transactions", "id", "budget_id", "account_id", "category_id", "payee_id", "amount", "date", "memo", "created_at"),
		im.Values(psql.Arg(
			tx.ID, tx.BudgetID, tx.AccountID, toNull(tx.CategoryID), toNull(tx.PayeeID),
			tx.Amount, dateArg(tx.Date), tx.Memo, tx.CreatedAt,
		)),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return translate("transaction", tx.ID, err)
}

// Update replaces every mutable field. CreatedAt and BudgetID never change.
func (t *TransactionsTable) Update(ctx context.Context, tx *storage.Transaction) error {
	q := psql.Update(
		um.Table("transactions"),
		um.SetCol("account_id").ToArg(tx.AccountID),
		um.SetCol("category_id").ToArg(toNull(tx.CategoryID)),
		um.SetCol("payee_id").ToArg(toNull(tx.PayeeID)),
		um.SetCol("amount").ToArg(tx.Amount),
		um.SetCol("date").ToArg(dateArg(tx.Date)),
		um.SetCol("memo").ToArg(tx.Memo),
		um.Where(psql.Quote("id").EQ(psql.Arg(tx.ID))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("transaction", tx.ID, res, err)
}

func (t *TransactionsTable) Delete(ctx context.Context, id uuid.UUID) error {
	q := psql.Delete(
		dm.From("transactions"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	return requireRow("transaction", id, res, err)
}

// List returns transactions matching the filter, newest first. A positive
// limit fetches one extra row so callers can tell whether another page
// follows.
func (t *TransactionsTable) List(ctx context.Context, filter *storage.TransactionFilter) ([]*storage.Transaction, error) {
	var queryMods []bob.Mod[*dialect.SelectQuery]
	queryMods = append(queryMods, sm.Columns(transactionColumns...), sm.From("transactions"))
	if filter != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("budget_id").EQ(psql.Arg(filter.BudgetID))))
		if filter.AccountID != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("account_id").EQ(psql.Arg(*filter.AccountID))))
		}
		if filter.CategoryID != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("category_id").EQ(psql.Arg(*filter.CategoryID))))
		}
		if filter.MaxCreationTime != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("created_at").LTE(psql.Arg(*filter.MaxCreationTime))))
		}
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote("created_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Desc(),
	)
	return t.all(ctx, psql.Select(queryMods...))
}

// ForCategory returns every transaction of a category in date order.
func (t *TransactionsTable) ForCategory(ctx context.Context, categoryID uuid.UUID) ([]*storage.Transaction, error) {
	q := psql.Select(
		sm.Columns(transactionColumns...),
		sm.From("transactions"),
		sm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
		sm.OrderBy(psql.Quote("date")).Asc(),
		sm.OrderBy(psql.Quote("id")).Asc(),
	)
	return t.all(ctx, q)
}

func (t *TransactionsTable) all(ctx context.Context, q bob.Query) ([]*storage.Transaction, error) {
	rows, err := bob.All(ctx, t.exec, q, scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, err
	}
	result := make([]*storage.Transaction, len(rows))
	for i, row := range rows {
		result[i] = row.toStorage()
	}
	return result, nil
}

// ReassignCategory re-points every transaction of from to to, or clears the
// category when to is nil.
func (t *TransactionsTable) ReassignCategory(ctx context.Context, from uuid.UUID, to *uuid.UUID) error {
	q := psql.Update(
		um.Table("transactions"),
		um.SetCol("category_id").ToArg(toNull(to)),
		um.Where(psql.Quote("category_id").EQ(psql.Arg(from))),
	)
	_, err := bob.Exec(ctx, t.exec, q)
	return err
}

func (t *TransactionsTable) SumForCategoryMonth(ctx context.Context, categoryID uuid.UUID, m month.Month) (money.Money, error) {
	return t.sum(ctx, psql.RawQuery(
		`SELECT COALESCE(SUM(amount), 0)::text FROM transactions
		WHERE category_id = ? AND date >= ? AND date < ?`,
		categoryID, dateArg(m.Start()), dateArg(m.End()),
	))
}

// SumUnbudgeted sums transactions without a category, up to the end of upto
// when it is set.
func (t *TransactionsTable) SumUnbudgeted(ctx context.Context, budgetID uuid.UUID, upto *month.Month) (money.Money, error) {
	if upto == nil {
		return t.sum(ctx, psql.RawQuery(
			`SELECT COALESCE(SUM(amount), 0)::text FROM transactions
			WHERE budget_id = ? AND category_id IS NULL`,
			budgetID,
		))
	}
	return t.sum(ctx, psql.RawQuery(
		`SELECT COALESCE(SUM(amount), 0)::text FROM transactions
		WHERE budget_id = ? AND category_id IS NULL AND date < ?`,
		budgetID, dateArg(upto.End()),
	))
}

func (t *TransactionsTable) sum(ctx context.Context, q bob.Query) (money.Money, error) {
	total, err := bob.One(ctx, t.exec, q, scan.SingleColumnMapper[string])
	if err != nil {
		return money.Zero, err
	}
	return parseSum(total)
}

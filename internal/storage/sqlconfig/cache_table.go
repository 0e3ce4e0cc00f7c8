package sqlconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type cacheStateRow struct {
	Epoch        int64        `db:"cache_epoch"`
	FreshThrough sql.NullTime `db:"fresh_through"`
	Origin       sql.NullTime `db:"origin"`
	FirstMonth   month.Month  `db:"first_month"`
}

func (r cacheStateRow) toStorage() storage.CacheState {
	st := storage.CacheState{Epoch: r.Epoch}
	if r.FreshThrough.Valid {
		through := month.Of(r.FreshThrough.Time)
		st.FreshThrough = &through
	}
	return st
}

type cachedMonthRow struct {
	Budgeted money.Money `db:"budgeted"`
	Activity money.Money `db:"activity"`
	Balance  money.Money `db:"balance"`
}

// CacheTable stores the fresh prefix of each category's balance chain.
// categories.cache_epoch and categories.fresh_through describe it; rows in
// category_month_cache exist only for fresh months.
type CacheTable struct {
	exec bob.Executor
}

// State reports the category's cache epoch and last fresh month. Unknown
// categories have an empty cache.
func (t *CacheTable) State(ctx context.Context, categoryID uuid.UUID) (storage.CacheState, error) {
	q := psql.Select(
		sm.Columns("cache_epoch", "fresh_through"),
		sm.From("categories"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(categoryID))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[cacheStateRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return storage.CacheState{}, nil
	}
	if err != nil {
		return storage.CacheState{}, err
	}
	return row.toStorage(), nil
}

// Latest reports the latest month with an assignment or a transaction of the
// category. GREATEST skips NULLs, so it is NULL only when both are empty.
func (t *CacheTable) Latest(ctx context.Context, categoryID uuid.UUID) (month.Month, bool, error) {
	q := psql.RawQuery(
		`SELECT GREATEST(
			(SELECT max(month) FROM category_assignments WHERE category_id = ?),
			(SELECT date_trunc('month', max(date))::date FROM transactions WHERE category_id = ?)
		)`,
		categoryID, categoryID,
	)
	latest, err := bob.One(ctx, t.exec, q, scan.SingleColumnMapper[sql.NullTime])
	if err != nil {
		return 0, false, err
	}
	if !latest.Valid {
		return 0, false, nil
	}
	return month.Of(latest.Time), true, nil
}

func (t *CacheTable) Get(ctx context.Context, categoryID uuid.UUID, m month.Month) (storage.CategoryMonth, bool, error) {
	q := psql.Select(
		sm.Columns("budgeted", "activity", "balance"),
		sm.From("category_month_cache"),
		sm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
		sm.Where(psql.Quote("month").EQ(psql.Arg(m))),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[cachedMonthRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return storage.CategoryMonth{}, false, nil
	}
	if err != nil {
		return storage.CategoryMonth{}, false, err
	}
	return storage.CategoryMonth{Budgeted: row.Budgeted, Activity: row.Activity, Balance: row.Balance}, true, nil
}

// Set writes one swept month. exec must be a transaction: the category row is
// locked so a concurrent invalidation either lands before the epoch check or
// waits until the write commits.
func (t *CacheTable) Set(ctx context.Context, categoryID uuid.UUID, epoch int64, m month.Month, cm storage.CategoryMonth) error {
	q := psql.RawQuery(
		`SELECT cache_epoch, fresh_through, first_month,
			(SELECT min(month) FROM category_month_cache WHERE category_id = c.id) AS origin
		FROM categories c WHERE c.id = ? FOR UPDATE`,
		categoryID,
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[cacheStateRow]())
	if err != nil {
		return translate("category", categoryID, err)
	}
	if row.Epoch != epoch {
		return storage.ErrStaleRead
	}
	if !row.FreshThrough.Valid && m != row.FirstMonth {
		return fmt.Errorf("cache origin %s is not first month %s: %w", m, row.FirstMonth, storage.ErrStaleRead)
	}
	if row.FreshThrough.Valid {
		origin := month.Of(row.Origin.Time)
		through := month.Of(row.FreshThrough.Time)
		switch {
		case m.Before(origin):
			return fmt.Errorf("cache write for %s precedes fresh origin %s", m, origin)
		case m.After(through.Next()):
			return fmt.Errorf("cache write for %s leaves a gap after %s", m, through)
		}
	}

	upsert := psql.RawQuery(
		`INSERT INTO category_month_cache (category_id, month, budgeted, activity, balance)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (category_id, month) DO UPDATE
		SET budgeted = EXCLUDED.budgeted, activity = EXCLUDED.activity, balance = EXCLUDED.balance`,
		categoryID, m, cm.Budgeted, cm.Activity, cm.Balance,
	)
	if _, err := bob.Exec(ctx, t.exec, upsert); err != nil {
		return err
	}
	advance := psql.RawQuery(
		`UPDATE categories SET fresh_through = GREATEST(COALESCE(fresh_through, ?::date), ?::date) WHERE id = ?`,
		m, m, categoryID,
	)
	_, err = bob.Exec(ctx, t.exec, advance)
	return err
}

// InvalidateFrom drops every cached month >= m and bumps the epoch.
func (t *CacheTable) InvalidateFrom(ctx context.Context, categoryID uuid.UUID, m month.Month) error {
	drop := psql.Delete(
		dm.From("category_month_cache"),
		dm.Where(psql.Quote("category_id").EQ(psql.Arg(categoryID))),
		dm.Where(psql.Quote("month").GTE(psql.Arg(m))),
	)
	if _, err := bob.Exec(ctx, t.exec, drop); err != nil {
		return err
	}
	bump := psql.RawQuery(
		`UPDATE categories SET cache_epoch = cache_epoch + 1,
			fresh_through = (SELECT max(month) FROM category_month_cache WHERE category_id = ?)
		WHERE id = ?`,
		categoryID, categoryID,
	)
	_, err := bob.Exec(ctx, t.exec, bump)
	return err
}

package sqlconfig

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofrs/uuid/v5"
	"github.com/lib/pq"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

const (
	codeOutOfRange        = "22003" // numeric_value_out_of_range
	codeForeignKeyMissing = "23503" // foreign_key_violation
)

// translate maps driver errors onto the storage and money sentinels.
func translate(kind string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeOutOfRange:
			return fmt.Errorf("%s %s: %w: %s", kind, id, money.ErrArithmeticOverflow, pqErr.Message)
		case codeForeignKeyMissing:
			return fmt.Errorf("%s %s: %w: %s", kind, id, storage.ErrNotFound, pqErr.Detail)
		}
	}
	return err
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// requireRow turns an update that touched nothing into ErrNotFound.
func requireRow(kind string, id uuid.UUID, res sql.Result, err error) error {
	if err != nil {
		return translate(kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// parseSum reads a SUM rendered as text. Postgres widens bigint sums to
// numeric, so a total outside int64 surfaces here as an overflow.
func parseSum(s string) (money.Money, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return money.Zero, fmt.Errorf("%w: sum %s", money.ErrArithmeticOverflow, s)
		}
		return money.Zero, fmt.Errorf("parse sum %q: %w", s, err)
	}
	return money.FromMinorUnits(v), nil
}

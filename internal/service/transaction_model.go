package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// Transaction represents a transaction in the service layer. A nil
// CategoryID marks it as unbudgeted.
type Transaction struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	CategoryID *uuid.UUID
	PayeeID    *uuid.UUID
	Amount     money.Money
	Date       time.Time
	Memo       string
	CreatedAt  time.Time
}

// TransactionCursor identifies a position in a paginated result set
// and carries the limit and maxCreationTime so subsequent pages are consistent.
type TransactionCursor struct {
	Position        int
	Limit           int
	MaxCreationTime time.Time
}

// TransactionFilter narrows a listing to one account or category.
type TransactionFilter struct {
	AccountID  *uuid.UUID
	CategoryID *uuid.UUID
}

func transactionFromStorage(t *storage.Transaction) Transaction {
	return Transaction{
		ID:         t.ID,
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		PayeeID:    t.PayeeID,
		Amount:     t.Amount,
		Date:       t.Date,
		Memo:       t.Memo,
		CreatedAt:  t.CreatedAt,
	}
}

func transactionsFromStorage(rows []*storage.Transaction) []Transaction {
	out := make([]Transaction, len(rows))
	for i, row := range rows {
		out[i] = transactionFromStorage(row)
	}
	return out
}

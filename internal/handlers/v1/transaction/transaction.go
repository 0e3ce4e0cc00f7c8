package transaction

import (
	"time"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID         string `json:"id" doc:"Transaction UUID"`
	AccountID  string `json:"accountID" doc:"Account UUID"`
	CategoryID string `json:"categoryID,omitempty" doc:"Category UUID, absent for unbudgeted transactions"`
	PayeeID    string `json:"payeeID,omitempty" doc:"Payee UUID"`
	Amount     int64  `json:"amount" doc:"Signed amount in minor currency units"`
	Date       string `json:"date" doc:"Transaction date (YYYY-MM-DD)"`
	Memo       string `json:"memo" doc:"Free-form memo"`
	CreatedAt  string `json:"createdAt" doc:"RFC3339 creation time"`
}

// TransactionBody is the writable part of a transaction in request bodies.
type TransactionBody struct {
	AccountID  string `json:"accountID" format:"uuid" doc:"Account UUID"`
	CategoryID string `json:"categoryID,omitempty" doc:"Category UUID, omit for an unbudgeted transaction"`
	PayeeID    string `json:"payeeID,omitempty" doc:"Payee UUID"`
	Amount     int64  `json:"amount" doc:"Signed amount in minor currency units, negative for outflows"`
	Date       string `json:"date" format:"date" doc:"Transaction date (YYYY-MM-DD)"`
	Memo       string `json:"memo,omitempty" maxLength:"500" doc:"Free-form memo"`
}

func toResponse(tx service.Transaction) Transaction {
	return Transaction{
		ID:         tx.ID.String(),
		AccountID:  tx.AccountID.String(),
		CategoryID: apierror.OptionalString(tx.CategoryID),
		PayeeID:    apierror.OptionalString(tx.PayeeID),
		Amount:     tx.Amount.MinorUnits(),
		Date:       tx.Date.Format(time.DateOnly),
		Memo:       tx.Memo,
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

func toResponses(txs []service.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = toResponse(tx)
	}
	return out
}

// parseTransactionBody parses the IDs and date of a request body.
func parseTransactionBody(body TransactionBody) (service.Transaction, error) {
	accountID, err := apierror.ParseID("accountID", body.AccountID)
	if err != nil {
		return service.Transaction{}, err
	}
	categoryID, err := apierror.ParseOptionalID("categoryID", body.CategoryID)
	if err != nil {
		return service.Transaction{}, err
	}
	payeeID, err := apierror.ParseOptionalID("payeeID", body.PayeeID)
	if err != nil {
		return service.Transaction{}, err
	}
	date, err := apierror.ParseDate("date", body.Date)
	if err != nil {
		return service.Transaction{}, err
	}

	return service.Transaction{
		AccountID:  accountID,
		CategoryID: categoryID,
		PayeeID:    payeeID,
		Amount:     money.FromMinorUnits(body.Amount),
		Date:       date,
		Memo:       body.Memo,
	}, nil
}

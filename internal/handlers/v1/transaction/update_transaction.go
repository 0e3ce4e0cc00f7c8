package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// UpdateTransactionInput replaces one transaction.
type UpdateTransactionInput struct {
	BudgetID      string `path:"budgetID" doc:"Budget UUID"`
	TransactionID string `path:"transactionID" doc:"Transaction UUID"`
	Body          TransactionBody
}

type UpdateTransactionOutput struct {
	Body Transaction
}

// UpdateTransactionsBody carries full replacements keyed by ID.
type UpdateTransactionsBody struct {
	Transactions []struct {
		ID string `json:"id" format:"uuid" doc:"Transaction UUID"`
		TransactionBody
	} `json:"transactions" minItems:"1" maxItems:"1000" doc:"Replacements, applied all or none"`
}

type UpdateTransactionsInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     UpdateTransactionsBody
}

type UpdateTransactionsOutput struct {
	Body struct {
		Transactions []Transaction `json:"transactions" doc:"Updated transactions, in request order"`
	}
}

// transactionUpdater is the interface for updating transactions.
type transactionUpdater interface {
	UpdateTransaction(ctx context.Context, budgetID uuid.UUID, transaction service.Transaction) (service.Transaction, error)
	UpdateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []service.Transaction) ([]service.Transaction, error)
}

// UpdateTransactionHandler handles PUT on single and bulk transaction routes.
type UpdateTransactionHandler struct {
	TransactionService transactionUpdater
}

func NewUpdateTransactionHandler(svc transactionUpdater) *UpdateTransactionHandler {
	return &UpdateTransactionHandler{TransactionService: svc}
}

func (h *UpdateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "update-transaction",
		Method:      http.MethodPut,
		Path:        "/v1/budgets/{budgetID}/transactions/{transactionID}",
		Summary:     "Update transaction",
		Description: "Replaces every mutable field of a transaction. Memo-only changes leave the ledger untouched.",
		Tags:        []string{"Transactions"},
	}, h.handle)

	huma.Register(api, huma.Operation{
		OperationID: "update-transactions",
		Method:      http.MethodPut,
		Path:        "/v1/budgets/{budgetID}/transactions",
		Summary:     "Update transactions",
		Description: "Replaces every listed transaction or none of them.",
		Tags:        []string{"Transactions"},
	}, h.handleBulk)
}

func (h *UpdateTransactionHandler) handle(ctx context.Context, input *UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	id, err := apierror.ParseID("transactionID", input.TransactionID)
	if err != nil {
		return nil, err
	}
	tx, err := parseTransactionBody(input.Body)
	if err != nil {
		return nil, err
	}
	tx.ID = id

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("transactionID", id)
	}
	updated, err := h.TransactionService.UpdateTransaction(ctx, budgetID, tx)
	if err != nil {
		return nil, apierror.FromService(err, "failed to update transaction")
	}
	return &UpdateTransactionOutput{Body: toResponse(updated)}, nil
}

func (h *UpdateTransactionHandler) handleBulk(ctx context.Context, input *UpdateTransactionsInput) (*UpdateTransactionsOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	txs := make([]service.Transaction, len(input.Body.Transactions))
	for i, item := range input.Body.Transactions {
		if txs[i], err = parseTransactionBody(item.TransactionBody); err != nil {
			return nil, err
		}
		if txs[i].ID, err = apierror.ParseID("id", item.ID); err != nil {
			return nil, err
		}
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("transactionCount", len(txs))
		stopTimer = logData.AddTiming("updateTransactionsMs")
	}
	updated, err := h.TransactionService.UpdateTransactions(ctx, budgetID, txs)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to update transactions")
	}

	out := &UpdateTransactionsOutput{}
	out.Body.Transactions = toResponses(updated)
	return out, nil
}

package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
)

type DeleteTransactionInput struct {
	BudgetID      string `path:"budgetID" doc:"Budget UUID"`
	TransactionID string `path:"transactionID" doc:"Transaction UUID"`
}

type DeleteTransactionsInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     struct {
		IDs []string `json:"ids" minItems:"1" maxItems:"1000" doc:"Transaction UUIDs to delete, all or none"`
	}
}

type transactionDeleter interface {
	DeleteTransaction(ctx context.Context, budgetID, id uuid.UUID) error
	DeleteTransactions(ctx context.Context, budgetID uuid.UUID, ids []uuid.UUID) error
}

// DeleteTransactionHandler handles single and bulk transaction deletes.
type DeleteTransactionHandler struct {
	TransactionService transactionDeleter
}

func NewDeleteTransactionHandler(svc transactionDeleter) *DeleteTransactionHandler {
	return &DeleteTransactionHandler{TransactionService: svc}
}

func (h *DeleteTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "delete-transaction",
		Method:        http.MethodDelete,
		Path:          "/v1/budgets/{budgetID}/transactions/{transactionID}",
		Summary:       "Delete transaction",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusNoContent,
	}, h.handle)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-transactions",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/transactions/delete",
		Summary:       "Delete transactions",
		Description:   "Deletes every listed transaction or none of them.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusNoContent,
	}, h.handleBulk)
}

func (h *DeleteTransactionHandler) handle(ctx context.Context, input *DeleteTransactionInput) (*struct{}, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	id, err := apierror.ParseID("transactionID", input.TransactionID)
	if err != nil {
		return nil, err
	}
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("transactionID", id)
	}
	if err := h.TransactionService.DeleteTransaction(ctx, budgetID, id); err != nil {
		return nil, apierror.FromService(err, "failed to delete transaction")
	}
	return nil, nil
}

func (h *DeleteTransactionHandler) handleBulk(ctx context.Context, input *DeleteTransactionsInput) (*struct{}, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(input.Body.IDs))
	for i, raw := range input.Body.IDs {
		if ids[i], err = apierror.ParseID("ids", raw); err != nil {
			return nil, err
		}
	}
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("transactionCount", len(ids))
	}
	if err := h.TransactionService.DeleteTransactions(ctx, budgetID, ids); err != nil {
		return nil, apierror.FromService(err, "failed to delete transactions")
	}
	return nil, nil
}

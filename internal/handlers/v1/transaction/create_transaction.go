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

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     TransactionBody
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Status int
	Body   Transaction
}

// CreateTransactionsInput is the Huma input for creating many transactions.
type CreateTransactionsInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     struct {
		Transactions []TransactionBody `json:"transactions" minItems:"1" maxItems:"1000" doc:"Transactions to create, all or none"`
	}
}

// CreateTransactionsOutput is the Huma output for creating many transactions.
type CreateTransactionsOutput struct {
	Status int
	Body   struct {
		Transactions []Transaction `json:"transactions" doc:"Created transactions, in request order"`
	}
}

// transactionCreator is the interface for creating transactions.
type transactionCreator interface {
	CreateTransaction(ctx context.Context, budgetID uuid.UUID, transaction service.Transaction) (service.Transaction, error)
	CreateTransactions(ctx context.Context, budgetID uuid.UUID, transactions []service.Transaction) ([]service.Transaction, error)
}

// CreateTransactionHandler handles POST /v1/budgets/{budgetID}/transactions
// and its bulk variant.
type CreateTransactionHandler struct {
	TransactionService transactionCreator
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoints with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transaction",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/transactions",
		Summary:       "Create transaction",
		Description:   "Creates a transaction and updates the affected category months, account balance and To Be Budgeted.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)

	huma.Register(api, huma.Operation{
		OperationID:   "create-transactions",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/transactions/bulk",
		Summary:       "Create transactions",
		Description:   "Creates every transaction in the request or none of them.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handleBulk)
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	tx, err := parseTransactionBody(input.Body)
	if err != nil {
		return nil, err
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		stopTimer = logData.AddTiming("createTransactionMs")
	}
	created, err := h.TransactionService.CreateTransaction(ctx, budgetID, tx)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to create transaction")
	}

	return &CreateTransactionOutput{Status: http.StatusCreated, Body: toResponse(created)}, nil
}

func (h *CreateTransactionHandler) handleBulk(ctx context.Context, input *CreateTransactionsInput) (*CreateTransactionsOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	txs := make([]service.Transaction, len(input.Body.Transactions))
	for i, body := range input.Body.Transactions {
		if txs[i], err = parseTransactionBody(body); err != nil {
			return nil, err
		}
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("transactionCount", len(txs))
		stopTimer = logData.AddTiming("createTransactionsMs")
	}
	created, err := h.TransactionService.CreateTransactions(ctx, budgetID, txs)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to create transactions")
	}

	out := &CreateTransactionsOutput{Status: http.StatusCreated}
	out.Body.Transactions = toResponses(created)
	return out, nil
}

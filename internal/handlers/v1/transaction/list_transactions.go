package transaction

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// ListTransactionsCursor represents a pagination cursor in response bodies.
// It bundles position, limit, and maxCreationTime so subsequent pages use consistent parameters.
type ListTransactionsCursor struct {
	Position        int    `json:"position" doc:"Numeric offset position for the next page"`
	Limit           int    `json:"limit" doc:"Page size used for this cursor"`
	MaxCreationTime string `json:"maxCreationTime" doc:"Upper bound on createdAt locked in from the first page"`
}

// ListTransactionsInput is the Huma input for listing transactions. The
// cursor fields are echoed back from a previous response's nextCursor.
type ListTransactionsInput struct {
	BudgetID        string `path:"budgetID" doc:"Budget UUID"`
	AccountID       string `query:"accountID" doc:"Only transactions of this account"`
	CategoryID      string `query:"categoryID" doc:"Only transactions of this category"`
	Position        int    `query:"position" minimum:"0" doc:"Cursor position"`
	Limit           int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size, default 20"`
	MaxCreationTime string `query:"maxCreationTime" doc:"Cursor creation bound (RFC3339)"`
}

// ListTransactionsResponseBody is the response body for listing transactions.
type ListTransactionsResponseBody struct {
	Transactions []Transaction           `json:"transactions" doc:"Page of transactions, newest first"`
	NextCursor   *ListTransactionsCursor `json:"nextCursor,omitempty" doc:"Cursor to fetch the next page, absent on the last page"`
}

// ListTransactionsOutput is the Huma output for listing transactions.
type ListTransactionsOutput struct {
	Body ListTransactionsResponseBody
}

// transactionLister is the interface for listing transactions.
type transactionLister interface {
	ListTransactions(ctx context.Context, budgetID uuid.UUID, filter service.TransactionFilter, cursor *service.TransactionCursor) ([]service.Transaction, *service.TransactionCursor, error)
}

// ListTransactionsHandler handles GET /v1/budgets/{budgetID}/transactions.
type ListTransactionsHandler struct {
	TransactionService transactionLister
}

// NewListTransactionsHandler creates a new ListTransactionsHandler.
func NewListTransactionsHandler(svc transactionLister) *ListTransactionsHandler {
	return &ListTransactionsHandler{TransactionService: svc}
}

// Register registers the list transactions endpoint with the Huma API.
func (h *ListTransactionsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/transactions",
		Summary:     "List transactions",
		Description: "Returns a paginated list of transactions using cursor-based pagination.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

// parseListTransactionsInput parses and validates the API input.
// When a cursor is provided, limit and maxCreationTime come from it.
// Without a cursor, the service uses its default limit.
func parseListTransactionsInput(input *ListTransactionsInput) (budgetID uuid.UUID, filter service.TransactionFilter, cursor *service.TransactionCursor, err error) {
	if budgetID, err = apierror.ParseID("budgetID", input.BudgetID); err != nil {
		return
	}
	if filter.AccountID, err = apierror.ParseOptionalID("accountID", input.AccountID); err != nil {
		return
	}
	if filter.CategoryID, err = apierror.ParseOptionalID("categoryID", input.CategoryID); err != nil {
		return
	}

	if input.MaxCreationTime == "" {
		if input.Limit > 0 {
			cursor = &service.TransactionCursor{Position: input.Position, Limit: input.Limit}
			// A first page with an explicit limit locks in the bound itself.
			cursor.MaxCreationTime = time.Now().UTC()
		}
		return
	}

	maxCreationTime, parseErr := time.Parse(time.RFC3339Nano, input.MaxCreationTime)
	if parseErr != nil {
		err = huma.NewError(http.StatusBadRequest, "invalid cursor maxCreationTime", parseErr)
		return
	}
	if input.Limit == 0 {
		err = huma.NewError(http.StatusBadRequest, "cursor limit must be set")
		return
	}

	cursor = &service.TransactionCursor{
		Position:        input.Position,
		Limit:           input.Limit,
		MaxCreationTime: maxCreationTime,
	}
	return
}

func (h *ListTransactionsHandler) handle(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	logData := logging.GetLogData(ctx)
	budgetID, filter, requestCursor, err := parseListTransactionsInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		stopTimer = logData.AddTiming("listTransactionsMs")
	}
	transactions, nextCursor, err := h.TransactionService.ListTransactions(ctx, budgetID, filter, requestCursor)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to list transactions")
	}

	if logData != nil {
		logData.AddData("transactionCount", len(transactions))
	}

	resp := ListTransactionsResponseBody{
		Transactions: toResponses(transactions),
	}

	if nextCursor != nil {
		resp.NextCursor = &ListTransactionsCursor{
			Position:        nextCursor.Position,
			Limit:           nextCursor.Limit,
			MaxCreationTime: nextCursor.MaxCreationTime.Format(time.RFC3339Nano),
		}
	}

	return &ListTransactionsOutput{Body: resp}, nil
}

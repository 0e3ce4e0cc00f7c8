package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// ListAccountsCursor represents a pagination cursor in response bodies.
type ListAccountsCursor struct {
	Position int `json:"position" doc:"Offset for next page"`
	Limit    int `json:"limit" doc:"Page size"`
}

// ListAccountsInput is the Huma input for listing accounts.
type ListAccountsInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Position int    `query:"position" minimum:"0" doc:"Offset for pagination"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Page size, default 20"`
}

// ListAccountsResponseBody is the response body for listing accounts.
type ListAccountsResponseBody struct {
	Accounts   []Account           `json:"accounts" doc:"Page of accounts"`
	NextCursor *ListAccountsCursor `json:"nextCursor,omitempty" doc:"Cursor to fetch the next page, absent on the last page"`
}

// ListAccountsOutput is the Huma output for listing accounts.
type ListAccountsOutput struct {
	Body ListAccountsResponseBody
}

// accountLister is the interface for listing accounts.
type accountLister interface {
	ListAccounts(ctx context.Context, budgetID uuid.UUID, cursor *service.AccountCursor) ([]service.Account, *service.AccountCursor, error)
}

// ListAccountsHandler handles GET /v1/budgets/{budgetID}/accounts.
type ListAccountsHandler struct {
	AccountService accountLister
}

// NewListAccountsHandler creates a new ListAccountsHandler.
func NewListAccountsHandler(svc accountLister) *ListAccountsHandler {
	return &ListAccountsHandler{AccountService: svc}
}

// Register registers the list accounts endpoint with the Huma API.
func (h *ListAccountsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-accounts",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/accounts",
		Summary:     "List accounts",
		Description: "Returns a paginated list of the budget's accounts.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *ListAccountsHandler) handle(ctx context.Context, input *ListAccountsInput) (*ListAccountsOutput, error) {
	logData := logging.GetLogData(ctx)
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}

	var cursor *service.AccountCursor
	if input.Limit > 0 {
		cursor = &service.AccountCursor{Position: input.Position, Limit: input.Limit}
	}

	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		stopTimer = logData.AddTiming("listAccountsMs")
	}
	accounts, nextCursor, err := h.AccountService.ListAccounts(ctx, budgetID, cursor)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to list accounts")
	}

	if logData != nil {
		logData.AddData("accountCount", len(accounts))
	}

	resp := ListAccountsResponseBody{
		Accounts: make([]Account, len(accounts)),
	}
	for i, acc := range accounts {
		resp.Accounts[i] = toResponse(acc)
	}

	if nextCursor != nil {
		resp.NextCursor = &ListAccountsCursor{
			Position: nextCursor.Position,
			Limit:    nextCursor.Limit,
		}
	}

	return &ListAccountsOutput{Body: resp}, nil
}

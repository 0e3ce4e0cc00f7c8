package account

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// CreateAccountInput is the Huma input for creating an account.
type CreateAccountInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     CreateAccountBody
}

// CreateAccountBody is the request body fields for creating an account.
type CreateAccountBody struct {
	Name            string `json:"name" minLength:"1" doc:"Account name"`
	Type            int    `json:"type" minimum:"0" maximum:"4" doc:"Account type: 0=Cash, 1=Credit Cards, 2=Investments, 3=Loans, 4=Assets"`
	StartingBalance int64  `json:"startingBalance,omitempty" doc:"Opening balance in minor units, booked as unbudgeted income"`
	OpenedOn        string `json:"openedOn,omitempty" format:"date" doc:"Date of the starting balance (YYYY-MM-DD), defaults to today"`
}

// CreateAccountOutput is the response for creating an account.
type CreateAccountOutput struct {
	Status int
	Body   Account
}

// accountCreator is the interface for creating accounts.
type accountCreator interface {
	CreateAccount(ctx context.Context, budgetID uuid.UUID, account service.NewAccount) (service.Account, error)
}

// CreateAccountHandler handles POST /v1/budgets/{budgetID}/accounts.
type CreateAccountHandler struct {
	AccountService accountCreator
}

// NewCreateAccountHandler creates a new CreateAccountHandler.
func NewCreateAccountHandler(svc accountCreator) *CreateAccountHandler {
	return &CreateAccountHandler{AccountService: svc}
}

// Register registers the create account endpoint with the Huma API.
func (h *CreateAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-account",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/accounts",
		Summary:       "Create account",
		Description:   "Creates an account. A non-zero starting balance is recorded as an unbudgeted transaction.",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

// parseCreateAccountInput converts the API input into the service model.
func parseCreateAccountInput(input *CreateAccountInput) (uuid.UUID, service.NewAccount, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return uuid.Nil, service.NewAccount{}, err
	}

	openedOn := time.Now().UTC()
	if input.Body.OpenedOn != "" {
		if openedOn, err = apierror.ParseDate("openedOn", input.Body.OpenedOn); err != nil {
			return uuid.Nil, service.NewAccount{}, err
		}
	}

	return budgetID, service.NewAccount{
		Name:            input.Body.Name,
		Type:            service.AccountType(input.Body.Type),
		StartingBalance: money.FromMinorUnits(input.Body.StartingBalance),
		OpenedOn:        openedOn,
	}, nil
}

func (h *CreateAccountHandler) handle(ctx context.Context, input *CreateAccountInput) (*CreateAccountOutput, error) {
	logData := logging.GetLogData(ctx)
	budgetID, account, err := parseCreateAccountInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		stopTimer = logData.AddTiming("createAccountMs")
	}
	created, err := h.AccountService.CreateAccount(ctx, budgetID, account)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to create account")
	}

	if logData != nil {
		logData.AddData("accountID", created.ID)
	}

	return &CreateAccountOutput{Status: http.StatusCreated, Body: toResponse(created)}, nil
}

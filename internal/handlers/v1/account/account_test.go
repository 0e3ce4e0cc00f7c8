package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/service"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) CreateAccount(ctx context.Context, budgetID uuid.UUID, account service.NewAccount) (service.Account, error) {
	args := m.Called(ctx, budgetID, account)
	return args.Get(0).(service.Account), args.Error(1)
}

func (m *mockAccountService) ListAccounts(ctx context.Context, budgetID uuid.UUID, cursor *service.AccountCursor) ([]service.Account, *service.AccountCursor, error) {
	args := m.Called(ctx, budgetID, cursor)
	var accounts []service.Account
	if v := args.Get(0); v != nil {
		accounts = v.([]service.Account)
	}
	var next *service.AccountCursor
	if v := args.Get(1); v != nil {
		next = v.(*service.AccountCursor)
	}
	return accounts, next, args.Error(2)
}

func newTestAPI(t *testing.T, svc *mockAccountService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateAccountHandler(svc).Register(api)
	NewListAccountsHandler(svc).Register(api)
	return api
}

// -- CreateAccount --

func TestParseCreateAccountInput(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())

	parsedBudget, account, err := parseCreateAccountInput(&CreateAccountInput{
		BudgetID: budgetID.String(),
		Body:     CreateAccountBody{Name: "Visa", Type: 1, StartingBalance: -4200, OpenedOn: "2024-02-10"},
	})
	require.NoError(t, err)
	assert.Equal(t, budgetID, parsedBudget)
	assert.Equal(t, service.AccountTypeCreditCards, account.Type)
	assert.Equal(t, money.Money(-4200), account.StartingBalance)
	assert.Equal(t, "2024-02-10", account.OpenedOn.Format("2006-01-02"))
}

func TestHTTP_CreateAccount_Success(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	accountID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockAccountService)
	mockSvc.On("CreateAccount", mock.Anything, budgetID, mock.MatchedBy(func(a service.NewAccount) bool {
		return a.Name == "Checking" && a.StartingBalance == 100000
	})).Return(service.Account{ID: accountID, BudgetID: budgetID, Name: "Checking", Balance: 100000}, nil)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/accounts", budgetID), CreateAccountBody{
		Name:            "Checking",
		StartingBalance: 100000,
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, accountID.String(), body.ID)
	assert.Equal(t, int64(100000), body.Balance)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateAccount_TypeOutOfRange(t *testing.T) {
	mockSvc := new(mockAccountService)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/accounts", uuid.Must(uuid.NewV4())), CreateAccountBody{
		Name: "Checking",
		Type: 9,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateAccount")
}

func TestHTTP_CreateAccount_UnknownBudget(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("CreateAccount", mock.Anything, mock.Anything, mock.Anything).
		Return(service.Account{}, fmt.Errorf("%w: budget", ledger.ErrUnknownEntity))

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/accounts", uuid.Must(uuid.NewV4())), CreateAccountBody{
		Name: "Checking",
	})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// -- ListAccounts --

func TestHTTP_ListAccounts_DefaultCursor(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything, budgetID, (*service.AccountCursor)(nil)).
		Return([]service.Account{{ID: uuid.Must(uuid.NewV4()), Name: "Checking"}}, &service.AccountCursor{Position: 20, Limit: 20}, nil)

	resp := newTestAPI(t, mockSvc).Get(fmt.Sprintf("/v1/budgets/%s/accounts", budgetID))

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Accounts, 1)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, 20, body.NextCursor.Position)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_ListAccounts_WithCursor(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything, budgetID, &service.AccountCursor{Position: 4, Limit: 2}).
		Return(nil, nil, nil)

	resp := newTestAPI(t, mockSvc).Get(fmt.Sprintf("/v1/budgets/%s/accounts?position=4&limit=2", budgetID))

	assert.Equal(t, http.StatusOK, resp.Code)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_ListAccounts_ServiceError(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("ListAccounts", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("database unavailable"))

	resp := newTestAPI(t, mockSvc).Get(fmt.Sprintf("/v1/budgets/%s/accounts", uuid.Must(uuid.NewV4())))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

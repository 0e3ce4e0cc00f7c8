package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/service"
)

// -- parseTransactionBody unit tests --
// These verify individual parsed field values which the HTTP tests don't assert.

func TestParseTransactionBody_Unbudgeted(t *testing.T) {
	accountID := uuid.Must(uuid.NewV4())

	tx, err := parseTransactionBody(TransactionBody{
		AccountID: accountID.String(),
		Amount:    250000,
		Date:      "2024-01-01",
		Memo:      "Paycheck",
	})
	require.NoError(t, err)
	assert.Equal(t, accountID, tx.AccountID)
	assert.Nil(t, tx.CategoryID)
	assert.Nil(t, tx.PayeeID)
	assert.Equal(t, money.Money(250000), tx.Amount)
	assert.True(t, tx.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseTransactionBody_InvalidCategory(t *testing.T) {
	_, err := parseTransactionBody(TransactionBody{
		AccountID:  uuid.Must(uuid.NewV4()).String(),
		CategoryID: "groceries",
		Date:       "2024-01-01",
	})
	assert.Error(t, err)
}

// -- HTTP integration tests (full Huma stack via humatest) --

func TestHTTP_CreateTransaction_Success(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	accountID := uuid.Must(uuid.NewV4())
	categoryID := uuid.Must(uuid.NewV4())
	txID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockTransactionService)
	mockSvc.On("CreateTransaction", mock.Anything, budgetID, mock.MatchedBy(func(tx service.Transaction) bool {
		return tx.AccountID == accountID &&
			tx.CategoryID != nil && *tx.CategoryID == categoryID &&
			tx.Amount == -1250 &&
			tx.Memo == "Coffee"
	})).Return(service.Transaction{
		ID:         txID,
		AccountID:  accountID,
		CategoryID: &categoryID,
		Amount:     -1250,
		Date:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		Memo:       "Coffee",
	}, nil)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions", budgetID), TransactionBody{
		AccountID:  accountID.String(),
		CategoryID: categoryID.String(),
		Amount:     -1250,
		Date:       "2024-03-02",
		Memo:       "Coffee",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, txID.String(), body.ID)
	assert.Equal(t, int64(-1250), body.Amount)
	assert.Equal(t, "2024-03-02", body.Date)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateTransaction_MissingRequiredFields(t *testing.T) {
	mockSvc := new(mockTransactionService)

	// Huma schema validation rejects the request before the handler runs.
	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions", uuid.Must(uuid.NewV4())), map[string]any{
		"accountID": uuid.Must(uuid.NewV4()).String(),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateTransaction")
}

func TestHTTP_CreateTransaction_FractionalAmountRejected(t *testing.T) {
	mockSvc := new(mockTransactionService)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions", uuid.Must(uuid.NewV4())), map[string]any{
		"accountID": uuid.Must(uuid.NewV4()).String(),
		"amount":    12.5,
		"date":      "2024-03-02",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateTransaction")
}

func TestHTTP_CreateTransaction_InvalidBudgetID(t *testing.T) {
	mockSvc := new(mockTransactionService)

	resp := newTestAPI(t, mockSvc).Post("/v1/budgets/not-a-uuid/transactions", TransactionBody{
		AccountID: uuid.Must(uuid.NewV4()).String(),
		Amount:    100,
		Date:      "2024-03-02",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateTransaction")
}

func TestHTTP_CreateTransaction_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"unknown account": {fmt.Errorf("item 0: %w: account x", ledger.ErrUnknownEntity), http.StatusNotFound},
		"cross budget":    {fmt.Errorf("item 0: %w", ledger.ErrCrossBudgetReference), http.StatusUnprocessableEntity},
		"overflow":        {money.ErrArithmeticOverflow, http.StatusUnprocessableEntity},
		"storage":         {errors.New("database unavailable"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mockSvc := new(mockTransactionService)
			mockSvc.On("CreateTransaction", mock.Anything, mock.Anything, mock.Anything).
				Return(service.Transaction{}, tc.err)

			resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions", uuid.Must(uuid.NewV4())), TransactionBody{
				AccountID: uuid.Must(uuid.NewV4()).String(),
				Amount:    100,
				Date:      "2024-03-02",
			})
			assert.Equal(t, tc.status, resp.Code)
		})
	}
}

func TestHTTP_CreateTransactions_Bulk(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	accountID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockTransactionService)
	mockSvc.On("CreateTransactions", mock.Anything, budgetID, mock.MatchedBy(func(txs []service.Transaction) bool {
		return len(txs) == 2 && txs[0].Amount == 100 && txs[1].Amount == -40
	})).Return([]service.Transaction{
		{ID: uuid.Must(uuid.NewV4()), AccountID: accountID, Amount: 100},
		{ID: uuid.Must(uuid.NewV4()), AccountID: accountID, Amount: -40},
	}, nil)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions/bulk", budgetID), map[string]any{
		"transactions": []TransactionBody{
			{AccountID: accountID.String(), Amount: 100, Date: "2024-01-01"},
			{AccountID: accountID.String(), Amount: -40, Date: "2024-01-02"},
		},
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Transactions, 2)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateTransactions_EmptyRejected(t *testing.T) {
	mockSvc := new(mockTransactionService)

	resp := newTestAPI(t, mockSvc).Post(fmt.Sprintf("/v1/budgets/%s/transactions/bulk", uuid.Must(uuid.NewV4())), map[string]any{
		"transactions": []TransactionBody{},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "CreateTransactions")
}

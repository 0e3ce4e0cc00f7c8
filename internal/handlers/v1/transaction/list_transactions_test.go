package transaction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/service"
)

// -- parseListTransactionsInput unit tests --

func TestParseListTransactionsInput_NoCursor(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())

	parsedBudget, filter, cursor, err := parseListTransactionsInput(&ListTransactionsInput{BudgetID: budgetID.String()})
	require.NoError(t, err)
	assert.Equal(t, budgetID, parsedBudget)
	assert.Nil(t, filter.AccountID)
	assert.Nil(t, cursor)
}

func TestParseListTransactionsInput_WithCursor(t *testing.T) {
	bound := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	categoryID := uuid.Must(uuid.NewV4())

	_, filter, cursor, err := parseListTransactionsInput(&ListTransactionsInput{
		BudgetID:        uuid.Must(uuid.NewV4()).String(),
		CategoryID:      categoryID.String(),
		Position:        20,
		Limit:           10,
		MaxCreationTime: bound.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	assert.Equal(t, categoryID, *filter.CategoryID)
	require.NotNil(t, cursor)
	assert.Equal(t, 20, cursor.Position)
	assert.Equal(t, 10, cursor.Limit)
	assert.True(t, cursor.MaxCreationTime.Equal(bound))
}

func TestParseListTransactionsInput_InvalidMaxCreationTime(t *testing.T) {
	_, _, _, err := parseListTransactionsInput(&ListTransactionsInput{
		BudgetID:        uuid.Must(uuid.NewV4()).String(),
		Limit:           10,
		MaxCreationTime: "yesterday",
	})
	assert.Error(t, err)
}

// -- HTTP integration tests --

func TestHTTP_ListTransactions_ReturnsNextCursor(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	bound := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []service.Transaction{
		{ID: uuid.Must(uuid.NewV4()), AccountID: uuid.Must(uuid.NewV4()), Amount: -5, Date: bound, CreatedAt: bound},
	}

	mockSvc := new(mockTransactionService)
	mockSvc.On("ListTransactions", mock.Anything, budgetID, service.TransactionFilter{}, (*service.TransactionCursor)(nil)).
		Return(rows, &service.TransactionCursor{Position: 20, Limit: 20, MaxCreationTime: bound}, nil)

	resp := newTestAPI(t, mockSvc).Get(fmt.Sprintf("/v1/budgets/%s/transactions", budgetID))

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Transactions, 1)
	assert.Empty(t, body.Transactions[0].CategoryID)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, 20, body.NextCursor.Position)
	assert.Equal(t, bound.Format(time.RFC3339Nano), body.NextCursor.MaxCreationTime)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_ListTransactions_EmptyIsArray(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockTransactionService)
	mockSvc.On("ListTransactions", mock.Anything, budgetID, mock.Anything, mock.Anything).Return(nil, nil, nil)

	resp := newTestAPI(t, mockSvc).Get(fmt.Sprintf("/v1/budgets/%s/transactions", budgetID))

	assert.Equal(t, http.StatusOK, resp.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "[]", string(body["transactions"]))
	assert.NotContains(t, body, "nextCursor")
}

package transaction

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/service"
)

func TestHTTP_UpdateTransaction_UsesPathID(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	txID := uuid.Must(uuid.NewV4())
	accountID := uuid.Must(uuid.NewV4())

	mockSvc := new(mockTransactionService)
	mockSvc.On("UpdateTransaction", mock.Anything, budgetID, mock.MatchedBy(func(tx service.Transaction) bool {
		return tx.ID == txID && tx.CategoryID == nil && tx.Amount == 700
	})).Return(service.Transaction{ID: txID, AccountID: accountID, Amount: 700}, nil)

	resp := newTestAPI(t, mockSvc).Put(fmt.Sprintf("/v1/budgets/%s/transactions/%s", budgetID, txID), TransactionBody{
		AccountID: accountID.String(),
		Amount:    700,
		Date:      "2024-05-05",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_UpdateTransactions_DuplicateIsUnprocessable(t *testing.T) {
	budgetID := uuid.Must(uuid.NewV4())
	txID := uuid.Must(uuid.NewV4()).String()
	accountID := uuid.Must(uuid.NewV4()).String()

	mockSvc := new(mockTransactionService)
	mockSvc.On("UpdateTransactions", mock.Anything, budgetID, mock.Anything).
		Return(nil, fmt.Errorf("%w: item 1: transaction appears twice", ledger.ErrInvalidInput))

	item := map[string]any{"id": txID, "accountID": accountID, "amount": 1, "date": "2024-05-05"}
	resp := newTestAPI(t, mockSvc).Put(fmt.Sprintf("/v1/budgets/%s/transactions", budgetID), map[string]any{
		"transactions": []any{item, item},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertExpectations(t)
}

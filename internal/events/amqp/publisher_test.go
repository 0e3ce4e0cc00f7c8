package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/events"
	"github.com/carson-networks/budget-ledger/internal/month"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait, args).Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func TestNewPublisher_DeclaresDurableExchange(t *testing.T) {
	ch := &mockChannel{}
	ch.On("ExchangeDeclare", "ledger", "direct", true, false, false, false, amqp091.Table(nil)).Return(nil)

	p, err := newPublisher(ch, "ledger")
	require.NoError(t, err)
	assert.NotNil(t, p)
	ch.AssertExpectations(t)
}

func TestNewPublisher_DeclareError(t *testing.T) {
	ch := &mockChannel{}
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("access refused"))

	_, err := newPublisher(ch, "ledger")
	assert.ErrorContains(t, err, "declare exchange")
}

func TestPublish_SendsJSONBody(t *testing.T) {
	ch := &mockChannel{}
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	budgetID := uuid.Must(uuid.NewV4())
	categoryID := uuid.Must(uuid.NewV4())
	event := events.LedgerChanged{
		BudgetID:          budgetID,
		Operation:         "SetCategoryAssignment",
		Invalidated:       []events.Invalidation{{CategoryID: categoryID, FromMonth: month.MustParse("2024-03")}},
		ToBeBudgetedDelta: -500,
	}

	ch.On("PublishWithContext", mock.Anything, "ledger", routingKey, false, false, mock.MatchedBy(func(msg amqp091.Publishing) bool {
		var decoded map[string]any
		if err := json.Unmarshal(msg.Body, &decoded); err != nil {
			return false
		}
		inv := decoded["invalidated"].([]any)[0].(map[string]any)
		return msg.ContentType == "application/json" &&
			msg.DeliveryMode == amqp091.Persistent &&
			msg.Type == "SetCategoryAssignment" &&
			decoded["budgetId"] == budgetID.String() &&
			decoded["toBeBudgetedDelta"] == float64(-500) &&
			inv["fromMonth"] == "2024-03"
	})).Return(nil)

	p, err := newPublisher(ch, "ledger")
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), event))
	ch.AssertExpectations(t)
}

func TestPublish_WrapsError(t *testing.T) {
	ch := &mockChannel{}
	ch.On("ExchangeDeclare", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed"))
	ch.On("Close").Return(nil)

	p, err := newPublisher(ch, "ledger")
	require.NoError(t, err)
	err = p.Publish(context.Background(), events.LedgerChanged{})
	assert.ErrorContains(t, err, "publish event: channel closed")
	assert.NoError(t, p.Close())
}

package operator

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/budget-ledger/internal/events"
	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
	"github.com/carson-networks/budget-ledger/internal/storage/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.LedgerChanged) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type funcAction struct {
	name string
	fn   func(ctx context.Context, w storage.Writer) error
}

func (a *funcAction) Name() string { return a.name }

func (a *funcAction) Perform(ctx context.Context, w storage.Writer) error {
	return a.fn(ctx, w)
}

type fixture struct {
	store     *memory.Store
	proc      *ledger.Processor
	delegator *OperatorDelegator
	publisher *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	f := &fixture{
		store:     memory.NewStore(),
		proc:      ledger.NewProcessor(ledger.NewEngine(logger)),
		publisher: &mockPublisher{},
	}
	f.delegator = NewOperatorDelegator(f.store, f.publisher, logger, 16, time.Minute)
	t.Cleanup(f.delegator.Stop)
	return f
}

func (f *fixture) budget(t *testing.T) uuid.UUID {
	t.Helper()
	create := &actions.CreateBudget{Processor: f.proc, Budget: "Home"}
	require.NoError(t, f.delegator.Process(context.Background(), uuid.Nil, create))
	return create.Result.ID
}

func TestProcess_CommitsAndPublishes(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)

	group := &actions.CreateCategoryGroup{Base: actions.Base{Processor: f.proc, BudgetID: budgetID}, GroupName: "Bills"}
	require.NoError(t, f.delegator.Process(context.Background(), budgetID, group))
	first := month.MustParse("2024-01")
	category := &actions.CreateCategory{
		Base:     actions.Base{Processor: f.proc, BudgetID: budgetID},
		Category: ledger.NewCategory{GroupID: group.Result.ID, Name: "Rent", FirstMonth: &first},
	}
	require.NoError(t, f.delegator.Process(context.Background(), budgetID, category))

	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.LedgerChanged) bool {
		return ev.BudgetID == budgetID &&
			ev.Operation == "SetCategoryAssignment" &&
			ev.ToBeBudgetedDelta == -900 &&
			len(ev.Invalidated) == 1 &&
			ev.Invalidated[0].CategoryID == category.Result.ID
	})).Return(nil).Once()

	assign := &actions.SetCategoryAssignment{
		Base:       actions.Base{Processor: f.proc, BudgetID: budgetID},
		CategoryID: category.Result.ID,
		Month:      month.MustParse("2024-02"),
		Amount:     900,
	}
	require.NoError(t, f.delegator.Process(context.Background(), budgetID, assign))

	b, err := f.store.Budget(context.Background(), budgetID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(-900), b.ToBeBudgeted)
	f.publisher.AssertExpectations(t)
}

func TestProcess_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	account := &actions.CreateAccount{
		Base:    actions.Base{Processor: f.proc, BudgetID: budgetID},
		Account: ledger.NewAccount{Name: "Checking", StartingBalance: 100},
	}
	require.NoError(t, f.delegator.Process(context.Background(), budgetID, account))

	stored, err := f.store.Account(context.Background(), account.Result.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(100), stored.Balance)
}

func TestProcess_RollsBackOnError(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)

	err := f.delegator.Process(context.Background(), budgetID, &funcAction{name: "Failing", fn: func(ctx context.Context, w storage.Writer) error {
		if err := w.AdjustToBeBudgeted(ctx, budgetID, 500); err != nil {
			return err
		}
		return errors.New("boom")
	}})
	assert.EqualError(t, err, "boom")

	b, err := f.store.Budget(context.Background(), budgetID)
	require.NoError(t, err)
	assert.True(t, b.ToBeBudgeted.IsZero())
}

func TestProcess_RecoversPanic(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)

	err := f.delegator.Process(context.Background(), budgetID, &funcAction{name: "Panicking", fn: func(ctx context.Context, w storage.Writer) error {
		_ = w.AdjustToBeBudgeted(ctx, budgetID, 500)
		panic("unexpected")
	}})
	assert.ErrorContains(t, err, "panicked")

	b, err := f.store.Budget(context.Background(), budgetID)
	require.NoError(t, err)
	assert.True(t, b.ToBeBudgeted.IsZero())

	// The budget's operator keeps serving after a panic.
	assert.NoError(t, f.delegator.Process(context.Background(), budgetID, &funcAction{name: "Noop", fn: func(context.Context, storage.Writer) error {
		return nil
	}}))
}

func TestProcess_SerializesOneBudget(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)

	var running, maxRunning int32
	action := func() actions.IAction {
		return &funcAction{name: "Slow", fn: func(context.Context, storage.Writer) error {
			n := atomic.AddInt32(&running, 1)
			for {
				m := atomic.LoadInt32(&maxRunning)
				if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}}
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.delegator.Process(context.Background(), budgetID, action()))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxRunning)
}

func TestProcess_BudgetsRunConcurrently(t *testing.T) {
	f := newFixture(t)
	a, b := f.budget(t), f.budget(t)

	// Each action waits for the other; they only finish if both run at once.
	var arrived sync.WaitGroup
	arrived.Add(2)
	released := make(chan struct{})
	go func() {
		arrived.Wait()
		close(released)
	}()
	rendezvous := &funcAction{name: "Rendezvous", fn: func(ctx context.Context, _ storage.Writer) error {
		arrived.Done()
		select {
		case <-released:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for _, id := range []uuid.UUID{a, b} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			assert.NoError(t, f.delegator.Process(ctx, id, rendezvous))
		}(id)
	}
	wg.Wait()
}

func TestStop_RejectsNewWork(t *testing.T) {
	f := newFixture(t)
	budgetID := f.budget(t)
	f.delegator.Stop()

	err := f.delegator.Process(context.Background(), budgetID, &funcAction{name: "Late", fn: func(context.Context, storage.Writer) error {
		return nil
	}})
	assert.ErrorIs(t, err, ErrStopped)
}

func newIdleDelegator(t *testing.T, idle time.Duration) *OperatorDelegator {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d := NewOperatorDelegator(memory.NewStore(), nil, logger, 4, idle)
	t.Cleanup(d.Stop)
	return d
}

func noop(name string) *funcAction {
	return &funcAction{name: name, fn: func(context.Context, storage.Writer) error { return nil }}
}

func TestOperator_RetiresWhenIdle(t *testing.T) {
	d := newIdleDelegator(t, 20*time.Millisecond)
	budgets := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}
	for _, id := range budgets {
		require.NoError(t, d.Process(context.Background(), id, noop("Touch")))
	}

	require.Eventually(t, func() bool { return d.Running() == 0 }, 2*time.Second, 5*time.Millisecond)

	// The next action for a retired budget starts a fresh operator.
	require.NoError(t, d.Process(context.Background(), budgets[0], noop("Again")))
}

func TestOperator_NoIdleTimeoutKeepsOperators(t *testing.T) {
	d := newIdleDelegator(t, 0)
	require.NoError(t, d.Process(context.Background(), uuid.Must(uuid.NewV4()), noop("Touch")))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, d.Running())
}

func TestOperator_RetireNeverDropsQueuedWork(t *testing.T) {
	d := newIdleDelegator(t, time.Microsecond)
	budgetID := uuid.Must(uuid.NewV4())

	var ran atomic.Int64
	count := &funcAction{name: "Count", fn: func(context.Context, storage.Writer) error {
		ran.Add(1)
		return nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NoError(t, d.Process(ctx, budgetID, count))
				if j%10 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(400), ran.Load())
}

func TestOperator_RetireRefusedWhileSenderPending(t *testing.T) {
	d := newIdleDelegator(t, time.Hour)
	budgetID := uuid.Must(uuid.NewV4())

	slot, err := d.acquire(budgetID)
	require.NoError(t, err)
	assert.False(t, d.retire(budgetID, slot))

	d.release(slot)
	assert.True(t, d.retire(budgetID, slot))
	assert.Equal(t, 0, d.Running())
}

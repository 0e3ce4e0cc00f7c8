package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// BudgetService handles budget-wide reads and setup.
type BudgetService struct {
	base
}

func NewBudgetService(store storage.Store, op actionProcessor, proc *ledger.Processor) *BudgetService {
	return &BudgetService{base{store: store, operator: op, processor: proc}}
}

// CreateBudget creates an empty budget. An empty currency defaults to USD.
func (s *BudgetService) CreateBudget(ctx context.Context, name, currency string) (Budget, error) {
	action := &actions.CreateBudget{Processor: s.processor, Budget: name, Currency: currency}
	if err := s.operator.Process(ctx, uuid.Nil, action); err != nil {
		return Budget{}, err
	}
	return budgetFromStorage(action.Result), nil
}

func (s *BudgetService) GetBudget(ctx context.Context, id uuid.UUID) (Budget, error) {
	b, err := s.store.Budget(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	return budgetFromStorage(b), nil
}

func (s *BudgetService) ListBudgets(ctx context.Context) ([]Budget, error) {
	rows, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Budget, len(rows))
	for i, b := range rows {
		out[i] = budgetFromStorage(b)
	}
	return out, nil
}

// GetBudgetMonth projects every category of the budget for m.
func (s *BudgetService) GetBudgetMonth(ctx context.Context, budgetID uuid.UUID, m month.Month) (BudgetMonth, error) {
	bm, err := s.processor.Engine().ProjectBudgetMonth(ctx, s.store, budgetID, m)
	if err != nil {
		return BudgetMonth{}, err
	}
	return budgetMonthFromLedger(bm), nil
}

// GetBudgetMonths projects the budget for every month of from..to.
func (s *BudgetService) GetBudgetMonths(ctx context.Context, budgetID uuid.UUID, from, to month.Month) ([]BudgetMonth, error) {
	rows, err := s.processor.Engine().ProjectBudgetMonths(ctx, s.store, budgetID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]BudgetMonth, len(rows))
	for i, bm := range rows {
		out[i] = budgetMonthFromLedger(bm)
	}
	return out, nil
}

// VerifyToBeBudgeted compares the maintained To Be Budgeted with a
// recomputation from history without changing anything.
func (s *BudgetService) VerifyToBeBudgeted(ctx context.Context, budgetID uuid.UUID) (ToBeBudgetedReport, error) {
	check, err := s.processor.Engine().VerifyToBeBudgeted(ctx, s.store, budgetID)
	if err != nil {
		return ToBeBudgetedReport{}, err
	}
	return reportFromCheck(check), nil
}

// RepairToBeBudgeted overwrites a drifted To Be Budgeted. The returned report
// describes the state before the repair.
func (s *BudgetService) RepairToBeBudgeted(ctx context.Context, budgetID uuid.UUID) (ToBeBudgetedReport, error) {
	action := &actions.RepairToBeBudgeted{Base: s.action(budgetID)}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return ToBeBudgetedReport{}, err
	}
	return reportFromCheck(action.Result), nil
}

func (s *BudgetService) CreatePayee(ctx context.Context, budgetID uuid.UUID, name string) (Payee, error) {
	action := &actions.CreatePayee{Base: s.action(budgetID), PayeeName: name}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return Payee{}, err
	}
	return Payee{ID: action.Result.ID, BudgetID: action.Result.BudgetID, Name: action.Result.Name}, nil
}

func (s *BudgetService) ListPayees(ctx context.Context, budgetID uuid.UUID) ([]Payee, error) {
	if _, err := s.store.Budget(ctx, budgetID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListPayees(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	out := make([]Payee, len(rows))
	for i, p := range rows {
		out[i] = Payee{ID: p.ID, BudgetID: p.BudgetID, Name: p.Name}
	}
	return out, nil
}

package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// actionProcessor runs a mutation on a budget's operator queue.
type actionProcessor interface {
	Process(ctx context.Context, budgetID uuid.UUID, action actions.IAction) error
}

// Service holds all business logic services. Mutations go through the
// operator; reads go straight to the store.
type Service struct {
	Budget      *BudgetService
	Account     *AccountService
	Category    *CategoryService
	Transaction *TransactionService
}

// NewService creates a new Service with the given storage.
func NewService(store storage.Store, op actionProcessor, proc *ledger.Processor) *Service {
	return &Service{
		Budget:      NewBudgetService(store, op, proc),
		Account:     NewAccountService(store, op, proc),
		Category:    NewCategoryService(store, op, proc),
		Transaction: NewTransactionService(store, op, proc),
	}
}

type base struct {
	store     storage.Store
	operator  actionProcessor
	processor *ledger.Processor
}

func (b base) action(budgetID uuid.UUID) actions.Base {
	return actions.Base{Processor: b.processor, BudgetID: budgetID}
}

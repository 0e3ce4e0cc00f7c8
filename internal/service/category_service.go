package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/ledger"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/operator/actions"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

// CategoryService handles categories, their groups and monthly assignments.
type CategoryService struct {
	base
}

func NewCategoryService(store storage.Store, op actionProcessor, proc *ledger.Processor) *CategoryService {
	return &CategoryService{base{store: store, operator: op, processor: proc}}
}

func (s *CategoryService) CreateCategoryGroup(ctx context.Context, budgetID uuid.UUID, name string, order int) (CategoryGroup, error) {
	action := &actions.CreateCategoryGroup{Base: s.action(budgetID), GroupName: name, Order: order}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return CategoryGroup{}, err
	}
	return groupFromStorage(action.Result), nil
}

func (s *CategoryService) UpdateCategoryGroup(ctx context.Context, budgetID, groupID uuid.UUID, name string, order int) (CategoryGroup, error) {
	action := &actions.UpdateCategoryGroup{Base: s.action(budgetID), GroupID: groupID, GroupName: name, Order: order}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return CategoryGroup{}, err
	}
	return groupFromStorage(action.Result), nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, budgetID uuid.UUID, category NewCategory) (Category, error) {
	action := &actions.CreateCategory{
		Base: s.action(budgetID),
		Category: ledger.NewCategory{
			GroupID:    category.GroupID,
			Name:       category.Name,
			Order:      category.Order,
			Hidden:     category.Hidden,
			FirstMonth: category.FirstMonth,
		},
	}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return Category{}, err
	}
	return categoryFromStorage(action.Result), nil
}

// UpdateCategory renames, reorders, hides or regroups a category. Its first
// month never changes.
func (s *CategoryService) UpdateCategory(ctx context.Context, budgetID uuid.UUID, change CategoryChange) (Category, error) {
	action := &actions.UpdateCategory{
		Base: s.action(budgetID),
		Change: ledger.CategoryChange{
			ID:      change.ID,
			GroupID: change.GroupID,
			Name:    change.Name,
			Order:   change.Order,
			Hidden:  change.Hidden,
		},
	}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return Category{}, err
	}
	return categoryFromStorage(action.Result), nil
}

// ListCategories returns the budget's groups in order, each with its
// categories in order.
func (s *CategoryService) ListCategories(ctx context.Context, budgetID uuid.UUID) ([]GroupedCategories, error) {
	if _, err := s.store.Budget(ctx, budgetID); err != nil {
		return nil, err
	}
	groups, err := s.store.CategoryGroupsForBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	categories, err := s.store.CategoriesForBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	out := make([]GroupedCategories, len(groups))
	index := make(map[uuid.UUID]int, len(groups))
	for i, g := range groups {
		out[i] = GroupedCategories{CategoryGroup: groupFromStorage(g), Categories: []Category{}}
		index[g.ID] = i
	}
	for _, c := range categories {
		i, ok := index[c.GroupID]
		if !ok {
			continue
		}
		out[i].Categories = append(out[i].Categories, categoryFromStorage(c))
	}
	return out, nil
}

// GetCategoryMonths projects one category for every month of from..to.
func (s *CategoryService) GetCategoryMonths(ctx context.Context, budgetID, categoryID uuid.UUID, from, to month.Month) ([]CategoryMonth, error) {
	if err := s.ownedCategory(ctx, budgetID, categoryID); err != nil {
		return nil, err
	}
	rows, err := s.processor.Engine().ProjectCategoryMonths(ctx, s.store, categoryID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryMonth, len(rows))
	for i, cm := range rows {
		out[i] = CategoryMonth{
			CategoryID: categoryID,
			Month:      from.AddMonths(i),
			Budgeted:   cm.Budgeted,
			Activity:   cm.Activity,
			Balance:    cm.Balance,
		}
	}
	return out, nil
}

// GetCategoryMonth projects one category for m. A category of another budget
// is reported as unknown.
func (s *CategoryService) GetCategoryMonth(ctx context.Context, budgetID, categoryID uuid.UUID, m month.Month) (CategoryMonth, error) {
	if err := s.ownedCategory(ctx, budgetID, categoryID); err != nil {
		return CategoryMonth{}, err
	}
	cm, err := s.processor.Engine().ProjectCategoryMonth(ctx, s.store, categoryID, m)
	if err != nil {
		return CategoryMonth{}, err
	}
	return CategoryMonth{
		CategoryID: categoryID,
		Month:      m,
		Budgeted:   cm.Budgeted,
		Activity:   cm.Activity,
		Balance:    cm.Balance,
	}, nil
}

// SetCategoryAssignment sets the amount budgeted for (category, m) and
// returns the category's projection for m afterwards.
func (s *CategoryService) SetCategoryAssignment(ctx context.Context, budgetID, categoryID uuid.UUID, m month.Month, amount money.Money) (CategoryMonth, error) {
	action := &actions.SetCategoryAssignment{
		Base:       s.action(budgetID),
		CategoryID: categoryID,
		Month:      m,
		Amount:     amount,
	}
	if err := s.operator.Process(ctx, budgetID, action); err != nil {
		return CategoryMonth{}, err
	}
	return s.GetCategoryMonth(ctx, budgetID, categoryID, m)
}

// DeleteCategory removes a category. Its transactions and assignments move
// to reassignTo, or to To Be Budgeted when reassignTo is nil.
func (s *CategoryService) DeleteCategory(ctx context.Context, budgetID, categoryID uuid.UUID, reassignTo *uuid.UUID) error {
	return s.operator.Process(ctx, budgetID, &actions.DeleteCategory{
		Base:       s.action(budgetID),
		CategoryID: categoryID,
		ReassignTo: reassignTo,
	})
}

func (s *CategoryService) ownedCategory(ctx context.Context, budgetID, categoryID uuid.UUID) error {
	c, err := s.store.Category(ctx, categoryID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && c.BudgetID != budgetID) {
		return fmt.Errorf("%w: category %s", ledger.ErrUnknownEntity, categoryID)
	}
	return err
}

package service

import (
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/storage"
)

type CategoryGroup struct {
	ID       uuid.UUID
	BudgetID uuid.UUID
	Name     string
	Order    int
}

// Category is an envelope. FirstMonth is where its balance chain starts.
type Category struct {
	ID         uuid.UUID
	BudgetID   uuid.UUID
	GroupID    uuid.UUID
	Name       string
	Order      int
	Hidden     bool
	FirstMonth month.Month
}

// NewCategory is the input to CreateCategory. A nil FirstMonth starts the
// category in the current month.
type NewCategory struct {
	GroupID    uuid.UUID
	Name       string
	Order      int
	Hidden     bool
	FirstMonth *month.Month
}

// CategoryChange replaces the editable fields of a category.
type CategoryChange struct {
	ID      uuid.UUID
	GroupID uuid.UUID
	Name    string
	Order   int
	Hidden  bool
}

// GroupedCategories is one category group with its categories in order.
type GroupedCategories struct {
	CategoryGroup
	Categories []Category
}

func groupFromStorage(g *storage.CategoryGroup) CategoryGroup {
	return CategoryGroup{ID: g.ID, BudgetID: g.BudgetID, Name: g.Name, Order: g.Order}
}

func categoryFromStorage(c *storage.Category) Category {
	return Category{
		ID:         c.ID,
		BudgetID:   c.BudgetID,
		GroupID:    c.GroupID,
		Name:       c.Name,
		Order:      c.Order,
		Hidden:     c.Hidden,
		FirstMonth: c.FirstMonth,
	}
}

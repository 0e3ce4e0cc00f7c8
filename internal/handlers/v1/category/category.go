package category

import (
	"github.com/carson-networks/budget-ledger/internal/service"
)

// CategoryGroup is the API response model for a category group.
type CategoryGroup struct {
	ID    string `json:"id" doc:"Category group UUID"`
	Name  string `json:"name" doc:"Group name"`
	Order int    `json:"order" doc:"Display order"`
}

type GroupWithCategories struct {
	CategoryGroup
	Categories []Category `json:"categories" doc:"Categories in display order"`
}

// Category is the API response model for a category.
type Category struct {
	ID         string `json:"id" doc:"Category UUID"`
	GroupID    string `json:"groupID" doc:"Category group UUID"`
	Name       string `json:"name" doc:"Category name"`
	Order      int    `json:"order" doc:"Position within the group"`
	Hidden     bool   `json:"hidden" doc:"Hidden from the default view"`
	FirstMonth string `json:"firstMonth" doc:"First month of the balance chain (YYYY-MM)"`
}

// CategoryMonth is the API response model for one category in one month.
type CategoryMonth struct {
	CategoryID string `json:"categoryID" doc:"Category UUID"`
	Month      string `json:"month" doc:"Month (YYYY-MM)"`
	Budgeted   int64  `json:"budgeted" doc:"Assigned this month, minor units"`
	Activity   int64  `json:"activity" doc:"Sum of this month's transactions, minor units"`
	Balance    int64  `json:"balance" doc:"Balance at month end including carryover, minor units"`
}

func toGroup(g service.CategoryGroup) CategoryGroup {
	return CategoryGroup{ID: g.ID.String(), Name: g.Name, Order: g.Order}
}

func toGroupWithCategories(g service.GroupedCategories) GroupWithCategories {
	out := GroupWithCategories{CategoryGroup: toGroup(g.CategoryGroup), Categories: make([]Category, len(g.Categories))}
	for i, c := range g.Categories {
		out.Categories[i] = toCategory(c)
	}
	return out
}

func toCategory(c service.Category) Category {
	return Category{
		ID:         c.ID.String(),
		GroupID:    c.GroupID.String(),
		Name:       c.Name,
		Order:      c.Order,
		Hidden:     c.Hidden,
		FirstMonth: c.FirstMonth.String(),
	}
}

func toCategoryMonth(cm service.CategoryMonth) CategoryMonth {
	return CategoryMonth{
		CategoryID: cm.CategoryID.String(),
		Month:      cm.Month.String(),
		Budgeted:   cm.Budgeted.MinorUnits(),
		Activity:   cm.Activity.MinorUnits(),
		Balance:    cm.Balance.MinorUnits(),
	}
}

package category

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/money"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/service"
)

type categoryService interface {
	CreateCategoryGroup(ctx context.Context, budgetID uuid.UUID, name string, order int) (service.CategoryGroup, error)
	UpdateCategoryGroup(ctx context.Context, budgetID, groupID uuid.UUID, name string, order int) (service.CategoryGroup, error)
	CreateCategory(ctx context.Context, budgetID uuid.UUID, category service.NewCategory) (service.Category, error)
	UpdateCategory(ctx context.Context, budgetID uuid.UUID, change service.CategoryChange) (service.Category, error)
	ListCategories(ctx context.Context, budgetID uuid.UUID) ([]service.GroupedCategories, error)
	GetCategoryMonth(ctx context.Context, budgetID, categoryID uuid.UUID, m month.Month) (service.CategoryMonth, error)
	SetCategoryAssignment(ctx context.Context, budgetID, categoryID uuid.UUID, m month.Month, amount money.Money) (service.CategoryMonth, error)
	GetCategoryMonths(ctx context.Context, budgetID, categoryID uuid.UUID, from, to month.Month) ([]service.CategoryMonth, error)
	DeleteCategory(ctx context.Context, budgetID, categoryID uuid.UUID, reassignTo *uuid.UUID) error
}

// Handler serves category groups, categories and category months.
type Handler struct {
	CategoryService categoryService
}

func NewHandler(svc categoryService) *Handler {
	return &Handler{CategoryService: svc}
}

type CreateGroupInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     struct {
		Name  string `json:"name" minLength:"1" doc:"Group name"`
		Order int    `json:"order,omitempty" doc:"Display order"`
	}
}

type CreateGroupOutput struct {
	Status int
	Body   CategoryGroup
}

type UpdateGroupInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	GroupID  string `path:"groupID" doc:"Category group UUID"`
	Body     struct {
		Name  string `json:"name" minLength:"1" doc:"Group name"`
		Order int    `json:"order" doc:"Display order"`
	}
}

type UpdateGroupOutput struct {
	Body CategoryGroup
}

type ListCategoriesInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
}

type ListCategoriesOutput struct {
	Body struct {
		Groups []GroupWithCategories `json:"groups" doc:"Category groups in display order"`
	}
}

type CreateCategoryInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     struct {
		GroupID    string `json:"groupID" doc:"Category group UUID"`
		Name       string `json:"name" minLength:"1" doc:"Category name"`
		Order      int    `json:"order,omitempty" doc:"Position within the group"`
		Hidden     bool   `json:"hidden,omitempty" doc:"Hidden from the default view"`
		FirstMonth string `json:"firstMonth,omitempty" doc:"First month of the balance chain (YYYY-MM), defaults to the current month"`
	}
}

type CreateCategoryOutput struct {
	Status int
	Body   Category
}

type UpdateCategoryInput struct {
	BudgetID   string `path:"budgetID" doc:"Budget UUID"`
	CategoryID string `path:"categoryID" doc:"Category UUID"`
	Body       struct {
		GroupID string `json:"groupID" doc:"Category group UUID"`
		Name    string `json:"name" minLength:"1" doc:"Category name"`
		Order   int    `json:"order" doc:"Position within the group"`
		Hidden  bool   `json:"hidden" doc:"Hidden from the default view"`
	}
}

type UpdateCategoryOutput struct {
	Body Category
}

type CategoryMonthsInput struct {
	BudgetID   string `path:"budgetID" doc:"Budget UUID"`
	CategoryID string `path:"categoryID" doc:"Category UUID"`
	From       string `query:"from" required:"true" doc:"First month of the range (YYYY-MM)"`
	To         string `query:"to" doc:"Last month of the range (YYYY-MM), defaults to from"`
}

type CategoryMonthsOutput struct {
	Body struct {
		Months []CategoryMonth `json:"months" doc:"One entry per month, oldest first"`
	}
}

type CategoryMonthInput struct {
	BudgetID   string `path:"budgetID" doc:"Budget UUID"`
	CategoryID string `path:"categoryID" doc:"Category UUID"`
	Month      string `path:"month" doc:"Month (YYYY-MM)"`
}

type SetAssignmentInput struct {
	CategoryMonthInput
	Body struct {
		Budgeted int64 `json:"budgeted" doc:"Amount to assign for the month, minor units"`
	}
}

type CategoryMonthOutput struct {
	Body CategoryMonth
}

type DeleteCategoryInput struct {
	BudgetID   string `path:"budgetID" doc:"Budget UUID"`
	CategoryID string `path:"categoryID" doc:"Category UUID"`
	ReassignTo string `query:"reassignTo" doc:"Category UUID that receives the history; omit to release it to To Be Budgeted"`
}

func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-category-group",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/category-groups",
		Summary:       "Create category group",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
	}, h.createGroup)

	huma.Register(api, huma.Operation{
		OperationID: "update-category-group",
		Method:      http.MethodPut,
		Path:        "/v1/budgets/{budgetID}/category-groups/{groupID}",
		Summary:     "Update category group",
		Tags:        []string{"Categories"},
	}, h.updateGroup)

	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/categories",
		Summary:     "List categories",
		Description: "Lists the budget's category groups in order, each with its categories.",
		Tags:        []string{"Categories"},
	}, h.listCategories)

	huma.Register(api, huma.Operation{
		OperationID:   "create-category",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/categories",
		Summary:       "Create category",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusCreated,
	}, h.createCategory)

	huma.Register(api, huma.Operation{
		OperationID: "update-category",
		Method:      http.MethodPut,
		Path:        "/v1/budgets/{budgetID}/categories/{categoryID}",
		Summary:     "Update category",
		Description: "Replaces the category's group, name, order and hidden flag. The first month cannot change.",
		Tags:        []string{"Categories"},
	}, h.updateCategory)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-category",
		Method:        http.MethodDelete,
		Path:          "/v1/budgets/{budgetID}/categories/{categoryID}",
		Summary:       "Delete category",
		Description:   "Deletes a category, moving its transactions and assignments to reassignTo or releasing them to To Be Budgeted.",
		Tags:          []string{"Categories"},
		DefaultStatus: http.StatusNoContent,
	}, h.deleteCategory)

	huma.Register(api, huma.Operation{
		OperationID: "get-category-months",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/categories/{categoryID}/months",
		Summary:     "Get category months",
		Description: "Projects the category for every month of from..to, at most 60 months.",
		Tags:        []string{"Categories"},
	}, h.categoryMonths)

	huma.Register(api, huma.Operation{
		OperationID: "get-category-month",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/categories/{categoryID}/months/{month}",
		Summary:     "Get category month",
		Tags:        []string{"Categories"},
	}, h.categoryMonth)

	huma.Register(api, huma.Operation{
		OperationID: "set-category-assignment",
		Method:      http.MethodPut,
		Path:        "/v1/budgets/{budgetID}/categories/{categoryID}/months/{month}",
		Summary:     "Set category assignment",
		Description: "Sets the amount budgeted for the month and returns the updated category month.",
		Tags:        []string{"Categories"},
	}, h.setAssignment)
}

func (h *Handler) createGroup(ctx context.Context, input *CreateGroupInput) (*CreateGroupOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	group, err := h.CategoryService.CreateCategoryGroup(ctx, budgetID, input.Body.Name, input.Body.Order)
	if err != nil {
		return nil, apierror.FromService(err, "failed to create category group")
	}
	return &CreateGroupOutput{Status: http.StatusCreated, Body: toGroup(group)}, nil
}

func (h *Handler) updateGroup(ctx context.Context, input *UpdateGroupInput) (*UpdateGroupOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	groupID, err := apierror.ParseID("groupID", input.GroupID)
	if err != nil {
		return nil, err
	}
	group, err := h.CategoryService.UpdateCategoryGroup(ctx, budgetID, groupID, input.Body.Name, input.Body.Order)
	if err != nil {
		return nil, apierror.FromService(err, "failed to update category group")
	}
	return &UpdateGroupOutput{Body: toGroup(group)}, nil
}

func (h *Handler) listCategories(ctx context.Context, input *ListCategoriesInput) (*ListCategoriesOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	grouped, err := h.CategoryService.ListCategories(ctx, budgetID)
	if err != nil {
		return nil, apierror.FromService(err, "failed to list categories")
	}
	out := &ListCategoriesOutput{}
	out.Body.Groups = make([]GroupWithCategories, len(grouped))
	for i, g := range grouped {
		out.Body.Groups[i] = toGroupWithCategories(g)
	}
	return out, nil
}

func (h *Handler) createCategory(ctx context.Context, input *CreateCategoryInput) (*CreateCategoryOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	groupID, err := apierror.ParseID("groupID", input.Body.GroupID)
	if err != nil {
		return nil, err
	}
	var first *month.Month
	if input.Body.FirstMonth != "" {
		m, err := apierror.ParseMonth(input.Body.FirstMonth)
		if err != nil {
			return nil, err
		}
		first = &m
	}

	created, err := h.CategoryService.CreateCategory(ctx, budgetID, service.NewCategory{
		GroupID:    groupID,
		Name:       input.Body.Name,
		Order:      input.Body.Order,
		Hidden:     input.Body.Hidden,
		FirstMonth: first,
	})
	if err != nil {
		return nil, apierror.FromService(err, "failed to create category")
	}
	return &CreateCategoryOutput{Status: http.StatusCreated, Body: toCategory(created)}, nil
}

func (h *Handler) updateCategory(ctx context.Context, input *UpdateCategoryInput) (*UpdateCategoryOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	categoryID, err := apierror.ParseID("categoryID", input.CategoryID)
	if err != nil {
		return nil, err
	}
	groupID, err := apierror.ParseID("groupID", input.Body.GroupID)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("categoryID", categoryID)
	}
	updated, err := h.CategoryService.UpdateCategory(ctx, budgetID, service.CategoryChange{
		ID:      categoryID,
		GroupID: groupID,
		Name:    input.Body.Name,
		Order:   input.Body.Order,
		Hidden:  input.Body.Hidden,
	})
	if err != nil {
		return nil, apierror.FromService(err, "failed to update category")
	}
	return &UpdateCategoryOutput{Body: toCategory(updated)}, nil
}

func (h *Handler) deleteCategory(ctx context.Context, input *DeleteCategoryInput) (*struct{}, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	categoryID, err := apierror.ParseID("categoryID", input.CategoryID)
	if err != nil {
		return nil, err
	}
	reassignTo, err := apierror.ParseOptionalID("reassignTo", input.ReassignTo)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("categoryID", categoryID)
	}
	if err := h.CategoryService.DeleteCategory(ctx, budgetID, categoryID, reassignTo); err != nil {
		return nil, apierror.FromService(err, "failed to delete category")
	}
	return nil, nil
}

func parseCategoryMonth(input *CategoryMonthInput) (budgetID, categoryID uuid.UUID, m month.Month, err error) {
	if budgetID, err = apierror.ParseID("budgetID", input.BudgetID); err != nil {
		return
	}
	if categoryID, err = apierror.ParseID("categoryID", input.CategoryID); err != nil {
		return
	}
	m, err = apierror.ParseMonth(input.Month)
	return
}

func (h *Handler) categoryMonth(ctx context.Context, input *CategoryMonthInput) (*CategoryMonthOutput, error) {
	budgetID, categoryID, m, err := parseCategoryMonth(input)
	if err != nil {
		return nil, err
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("categoryID", categoryID)
		logData.AddData("month", m.String())
		stopTimer = logData.AddTiming("projectCategoryMonthMs")
	}
	cm, err := h.CategoryService.GetCategoryMonth(ctx, budgetID, categoryID, m)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to project category month")
	}
	return &CategoryMonthOutput{Body: toCategoryMonth(cm)}, nil
}

func (h *Handler) categoryMonths(ctx context.Context, input *CategoryMonthsInput) (*CategoryMonthsOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	categoryID, err := apierror.ParseID("categoryID", input.CategoryID)
	if err != nil {
		return nil, err
	}
	from, to, err := apierror.ParseMonthRange(input.From, input.To)
	if err != nil {
		return nil, err
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("categoryID", categoryID)
		logData.AddData("from", from.String())
		logData.AddData("to", to.String())
		stopTimer = logData.AddTiming("projectCategoryMonthsMs")
	}
	months, err := h.CategoryService.GetCategoryMonths(ctx, budgetID, categoryID, from, to)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to project category months")
	}
	out := &CategoryMonthsOutput{}
	out.Body.Months = make([]CategoryMonth, len(months))
	for i, cm := range months {
		out.Body.Months[i] = toCategoryMonth(cm)
	}
	return out, nil
}

func (h *Handler) setAssignment(ctx context.Context, input *SetAssignmentInput) (*CategoryMonthOutput, error) {
	budgetID, categoryID, m, err := parseCategoryMonth(&input.CategoryMonthInput)
	if err != nil {
		return nil, err
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("categoryID", categoryID)
		logData.AddData("month", m.String())
	}
	cm, err := h.CategoryService.SetCategoryAssignment(ctx, budgetID, categoryID, m, money.FromMinorUnits(input.Body.Budgeted))
	if err != nil {
		return nil, apierror.FromService(err, "failed to set category assignment")
	}
	return &CategoryMonthOutput{Body: toCategoryMonth(cm)}, nil
}

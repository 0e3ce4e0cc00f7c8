package budget

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/budget-ledger/internal/handlers/v1/apierror"
	"github.com/carson-networks/budget-ledger/internal/logging"
	"github.com/carson-networks/budget-ledger/internal/month"
	"github.com/carson-networks/budget-ledger/internal/service"
)

type budgetService interface {
	CreateBudget(ctx context.Context, name, currency string) (service.Budget, error)
	GetBudget(ctx context.Context, id uuid.UUID) (service.Budget, error)
	ListBudgets(ctx context.Context) ([]service.Budget, error)
	GetBudgetMonth(ctx context.Context, budgetID uuid.UUID, m month.Month) (service.BudgetMonth, error)
	GetBudgetMonths(ctx context.Context, budgetID uuid.UUID, from, to month.Month) ([]service.BudgetMonth, error)
	VerifyToBeBudgeted(ctx context.Context, budgetID uuid.UUID) (service.ToBeBudgetedReport, error)
	CreatePayee(ctx context.Context, budgetID uuid.UUID, name string) (service.Payee, error)
	ListPayees(ctx context.Context, budgetID uuid.UUID) ([]service.Payee, error)
}

// Handler serves budget-wide routes: creation, monthly views, To Be
// Budgeted checks and payees.
type Handler struct {
	BudgetService budgetService
}

func NewHandler(svc budgetService) *Handler {
	return &Handler{BudgetService: svc}
}

type CreateBudgetInput struct {
	Body struct {
		Name     string `json:"name" minLength:"1" doc:"Budget name"`
		Currency string `json:"currency,omitempty" pattern:"^[A-Za-z]{3}$" doc:"ISO 4217 code, defaults to USD"`
	}
}

type CreateBudgetOutput struct {
	Status int
	Body   Budget
}

type GetBudgetInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
}

type GetBudgetOutput struct {
	Body Budget
}

type ListBudgetsOutput struct {
	Body struct {
		Budgets []Budget `json:"budgets" doc:"Every budget"`
	}
}

type BudgetMonthsInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	From     string `query:"from" required:"true" doc:"First month of the range (YYYY-MM)"`
	To       string `query:"to" doc:"Last month of the range (YYYY-MM), defaults to from"`
}

type BudgetMonthsOutput struct {
	Body struct {
		Months []BudgetMonth `json:"months" doc:"One entry per month, oldest first"`
	}
}

type BudgetMonthInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Month    string `path:"month" doc:"Month (YYYY-MM)"`
}

type BudgetMonthOutput struct {
	Body BudgetMonth
}

type ToBeBudgetedInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
}

type ToBeBudgetedOutput struct {
	Body struct {
		Stored     int64 `json:"stored" doc:"Incrementally maintained To Be Budgeted"`
		Recomputed int64 `json:"recomputed" doc:"To Be Budgeted recomputed from history"`
		Consistent bool  `json:"consistent" doc:"Whether the two agree"`
	}
}

type CreatePayeeInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
	Body     struct {
		Name string `json:"name" minLength:"1" doc:"Payee name"`
	}
}

type CreatePayeeOutput struct {
	Status int
	Body   Payee
}

type ListPayeesInput struct {
	BudgetID string `path:"budgetID" doc:"Budget UUID"`
}

type ListPayeesOutput struct {
	Body struct {
		Payees []Payee `json:"payees" doc:"Payees by name"`
	}
}

func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-budget",
		Method:        http.MethodPost,
		Path:          "/v1/budgets",
		Summary:       "Create budget",
		Tags:          []string{"Budgets"},
		DefaultStatus: http.StatusCreated,
	}, h.createBudget)

	huma.Register(api, huma.Operation{
		OperationID: "list-budgets",
		Method:      http.MethodGet,
		Path:        "/v1/budgets",
		Summary:     "List budgets",
		Tags:        []string{"Budgets"},
	}, h.listBudgets)

	huma.Register(api, huma.Operation{
		OperationID: "get-budget",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}",
		Summary:     "Get budget",
		Tags:        []string{"Budgets"},
	}, h.getBudget)

	huma.Register(api, huma.Operation{
		OperationID: "get-budget-months",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/months",
		Summary:     "Get budget months",
		Description: "Projects the budget for every month of from..to, at most 60 months.",
		Tags:        []string{"Budgets"},
	}, h.budgetMonths)

	huma.Register(api, huma.Operation{
		OperationID: "get-budget-month",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/months/{month}",
		Summary:     "Get budget month",
		Description: "Projects every category for the month, with budget-wide totals.",
		Tags:        []string{"Budgets"},
	}, h.budgetMonth)

	huma.Register(api, huma.Operation{
		OperationID: "get-to-be-budgeted",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/to-be-budgeted",
		Summary:     "Verify To Be Budgeted",
		Description: "Compares the maintained To Be Budgeted with a recomputation from history.",
		Tags:        []string{"Budgets"},
	}, h.toBeBudgeted)

	huma.Register(api, huma.Operation{
		OperationID:   "create-payee",
		Method:        http.MethodPost,
		Path:          "/v1/budgets/{budgetID}/payees",
		Summary:       "Create payee",
		Tags:          []string{"Payees"},
		DefaultStatus: http.StatusCreated,
	}, h.createPayee)

	huma.Register(api, huma.Operation{
		OperationID: "list-payees",
		Method:      http.MethodGet,
		Path:        "/v1/budgets/{budgetID}/payees",
		Summary:     "List payees",
		Tags:        []string{"Payees"},
	}, h.listPayees)
}

func (h *Handler) createBudget(ctx context.Context, input *CreateBudgetInput) (*CreateBudgetOutput, error) {
	created, err := h.BudgetService.CreateBudget(ctx, input.Body.Name, input.Body.Currency)
	if err != nil {
		return nil, apierror.FromService(err, "failed to create budget")
	}
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("budgetID", created.ID)
	}
	return &CreateBudgetOutput{Status: http.StatusCreated, Body: toBudget(created)}, nil
}

func (h *Handler) listBudgets(ctx context.Context, _ *struct{}) (*ListBudgetsOutput, error) {
	budgets, err := h.BudgetService.ListBudgets(ctx)
	if err != nil {
		return nil, apierror.FromService(err, "failed to list budgets")
	}
	out := &ListBudgetsOutput{}
	out.Body.Budgets = make([]Budget, len(budgets))
	for i, b := range budgets {
		out.Body.Budgets[i] = toBudget(b)
	}
	return out, nil
}

func (h *Handler) getBudget(ctx context.Context, input *GetBudgetInput) (*GetBudgetOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	b, err := h.BudgetService.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, apierror.FromService(err, "failed to get budget")
	}
	return &GetBudgetOutput{Body: toBudget(b)}, nil
}

func (h *Handler) budgetMonths(ctx context.Context, input *BudgetMonthsInput) (*BudgetMonthsOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
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
		logData.AddData("budgetID", budgetID)
		logData.AddData("from", from.String())
		logData.AddData("to", to.String())
		stopTimer = logData.AddTiming("projectBudgetMonthsMs")
	}
	months, err := h.BudgetService.GetBudgetMonths(ctx, budgetID, from, to)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to project budget months")
	}
	out := &BudgetMonthsOutput{}
	out.Body.Months = make([]BudgetMonth, len(months))
	for i, bm := range months {
		out.Body.Months[i] = toBudgetMonth(bm)
	}
	return out, nil
}

func (h *Handler) budgetMonth(ctx context.Context, input *BudgetMonthInput) (*BudgetMonthOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	m, err := apierror.ParseMonth(input.Month)
	if err != nil {
		return nil, err
	}

	logData := logging.GetLogData(ctx)
	var stopTimer func()
	if logData != nil {
		logData.AddData("budgetID", budgetID)
		logData.AddData("month", m.String())
		stopTimer = logData.AddTiming("projectBudgetMonthMs")
	}
	bm, err := h.BudgetService.GetBudgetMonth(ctx, budgetID, m)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.FromService(err, "failed to project budget month")
	}
	return &BudgetMonthOutput{Body: toBudgetMonth(bm)}, nil
}

func (h *Handler) toBeBudgeted(ctx context.Context, input *ToBeBudgetedInput) (*ToBeBudgetedOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	report, err := h.BudgetService.VerifyToBeBudgeted(ctx, budgetID)
	if err != nil {
		return nil, apierror.FromService(err, "failed to verify to be budgeted")
	}
	out := &ToBeBudgetedOutput{}
	out.Body.Stored = report.Stored.MinorUnits()
	out.Body.Recomputed = report.Recomputed.MinorUnits()
	out.Body.Consistent = report.Consistent
	return out, nil
}

func (h *Handler) createPayee(ctx context.Context, input *CreatePayeeInput) (*CreatePayeeOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	payee, err := h.BudgetService.CreatePayee(ctx, budgetID, input.Body.Name)
	if err != nil {
		return nil, apierror.FromService(err, "failed to create payee")
	}
	return &CreatePayeeOutput{Status: http.StatusCreated, Body: toPayee(payee)}, nil
}

func (h *Handler) listPayees(ctx context.Context, input *ListPayeesInput) (*ListPayeesOutput, error) {
	budgetID, err := apierror.ParseID("budgetID", input.BudgetID)
	if err != nil {
		return nil, err
	}
	payees, err := h.BudgetService.ListPayees(ctx, budgetID)
	if err != nil {
		return nil, apierror.FromService(err, "failed to list payees")
	}
	out := &ListPayeesOutput{}
	out.Body.Payees = make([]Payee, len(payees))
	for i, p := range payees {
		out.Body.Payees[i] = toPayee(p)
	}
	return out, nil
}

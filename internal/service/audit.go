package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const auditConcurrency = 8

// AuditToBeBudgeted verifies every budget's To Be Budgeted concurrently and,
// when repair is set, repairs the ones that drifted. Reports keep the order of
// ListBudgets and describe the state found before any repair.
func (s *BudgetService) AuditToBeBudgeted(ctx context.Context, repair bool) ([]ToBeBudgetedReport, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]ToBeBudgetedReport, len(budgets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)
	for i, b := range budgets {
		g.Go(func() error {
			report, err := s.VerifyToBeBudgeted(ctx, b.ID)
			if err != nil {
				return fmt.Errorf("verify budget %s: %w", b.ID, err)
			}
			if !report.Consistent && repair {
				// Repair re-checks inside the budget's queue.
				if report, err = s.RepairToBeBudgeted(ctx, b.ID); err != nil {
					return fmt.Errorf("repair budget %s: %w", b.ID, err)
				}
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

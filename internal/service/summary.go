package service

import (
	"context"

	"github.com/rongwang/finance-server/internal/models"
)

// Summarize totals incomes and expenses over the inclusive window
// [startDate, endDate]. An empty window yields zeros.
func (s *DefaultService) Summarize(ctx context.Context, userID int64, startDate, endDate string) (*models.SummaryResponse, error) {
	start, end, err := parseWindow(startDate, endDate)
	if err != nil {
		return nil, err
	}

	income, err := s.repo.Totals(ctx, models.KindIncome, userID, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.Totals(ctx, models.KindExpense, userID, start, end)
	if err != nil {
		return nil, err
	}

	return &models.SummaryResponse{
		UserID: userID,
		Period: models.Period{Start: start, End: end},
		Summary: models.SummaryTotals{
			TotalIncome:   income.Total,
			TotalExpenses: expenses.Total,
			NetAmount:     income.Total.Sub(expenses.Total),
			IncomeCount:   income.Count,
			ExpenseCount:  expenses.Count,
		},
	}, nil
}

// TotalsByCategory groups records of kind by category. Categories with no
// records in the window are left out; rows come largest total first.
func (s *DefaultService) TotalsByCategory(ctx context.Context, kind models.RecordKind, userID int64, startDate, endDate string) ([]models.CategoryTotal, error) {
	start, end, err := parseWindow(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.CategoryTotals(ctx, kind, userID, start, end)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Average = rows[i].Total.DivRound(rows[i].Count)
	}
	return rows, nil
}

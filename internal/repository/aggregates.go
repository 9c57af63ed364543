package repository

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// Totals sums amount_cents in the database. Integer summation is exact, and
// COALESCE turns an empty window into 0 rather than NULL.
func (r *SQLRepository) Totals(ctx context.Context, kind models.RecordKind, userID int64, start, end models.Date) (models.Totals, error) {
	var totals models.Totals
	query := r.sb.Select("COALESCE(SUM(amount_cents), 0) AS total", "COUNT(*) AS count").
		From(kind.Table()).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"date": start}).
		Where(squirrel.LtOrEq{"date": end})

	if err := get(ctx, r.db, &totals, query); err != nil {
		return models.Totals{}, apperr.Internal("sum "+kind.Table(), err)
	}
	return totals, nil
}

// CategoryTotals groups records of kind by category inside the window.
// Categories without matching records produce no row.
func (r *SQLRepository) CategoryTotals(ctx context.Context, kind models.RecordKind, userID int64, start, end models.Date) ([]models.CategoryTotal, error) {
	query := r.sb.Select(
		"c.id AS category_id", "c.name AS category_name",
		"SUM(r.amount_cents) AS total", "COUNT(*) AS count",
	).
		From(kind.Table() + " r").
		Join("categories c ON c.id = r.category_id").
		Where(squirrel.Eq{"r.user_id": userID}).
		Where(squirrel.GtOrEq{"r.date": start}).
		Where(squirrel.LtOrEq{"r.date": end}).
		GroupBy("c.id", "c.name").
		OrderBy("total DESC", "c.id")

	rows := []models.CategoryTotal{}
	if err := selectAll(ctx, r.db, &rows, query); err != nil {
		return nil, apperr.Internal("group "+kind.Table()+" by category", err)
	}
	return rows, nil
}

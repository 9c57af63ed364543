package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

var categoryColumns = []string{"id", "user_id", "name", "type", "created_at"}

func (r *SQLRepository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	var created models.Category
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		insert := r.sb.Insert("categories").
			Columns("user_id", "name", "type", "created_at").
			Values(category.UserID, category.Name, string(category.Type), now()).
			Suffix("RETURNING id")

		var id int64
		if err := get(ctx, tx, &id, insert); err != nil {
			switch constraintViolation(err) {
			case uniqueViolation:
				return apperr.Conflict("category already exists")
			case foreignKeyViolation:
				return apperr.Reference("user")
			}
			return apperr.Internal("insert category", err)
		}

		return r.loadCategory(ctx, tx, &created, category.UserID, id)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *SQLRepository) GetCategory(ctx context.Context, userID, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.loadCategory(ctx, r.db, &category, userID, id); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *SQLRepository) loadCategory(ctx context.Context, q sqlx.QueryerContext, dest *models.Category, userID, id int64) error {
	query := r.sb.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID})

	if err := get(ctx, q, dest, query); err != nil {
		if isNoRows(err) {
			return apperr.NotFound("category")
		}
		return apperr.Internal("select category", err)
	}
	return nil
}

func (r *SQLRepository) ListCategories(ctx context.Context, userID int64, typ *models.CategoryType, page models.Page) ([]models.Category, error) {
	query := r.sb.Select(categoryColumns...).
		From("categories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("type", "name", "id")
	if typ != nil {
		query = query.Where(squirrel.Eq{"type": string(*typ)})
	}

	categories := []models.Category{}
	if err := selectAll(ctx, r.db, &categories, pageOf(query, page)); err != nil {
		return nil, apperr.Internal("select categories", err)
	}
	return categories, nil
}

// DeleteCategory refuses to remove a category that any income or expense
// still references.
func (r *SQLRepository) DeleteCategory(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockOwned(ctx, tx, "categories", "category", userID, id); err != nil {
			return err
		}

		for _, table := range []string{"incomes", "expenses"} {
			var refs int64
			count := r.sb.Select("COUNT(*)").From(table).Where(squirrel.Eq{"category_id": id})
			if err := get(ctx, tx, &refs, count); err != nil {
				return apperr.Internal("count category references", err)
			}
			if refs > 0 {
				return apperr.Conflict("category is referenced by existing records")
			}
		}

		if _, err := exec(ctx, tx, r.sb.Delete("categories").Where(squirrel.Eq{"id": id, "user_id": userID})); err != nil {
			if constraintViolation(err) == foreignKeyViolation {
				return apperr.Conflict("category is referenced by existing records")
			}
			return apperr.Internal("delete category", err)
		}
		return nil
	})
}

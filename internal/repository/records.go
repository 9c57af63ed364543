package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// recordsWithCategory selects money records of one kind joined with the
// name of their category. The join is on the category id only; callers
// add the user_id predicate.
func (r *SQLRepository) recordsWithCategory(kind models.RecordKind) squirrel.SelectBuilder {
	return r.sb.Select(
		"r.id", "r.user_id", "r.category_id", "c.name AS category_name",
		"r.amount_cents", "r.description", "r.date", "r.created_at", "r.updated_at",
	).
		From(kind.Table() + " r").
		Join("categories c ON c.id = r.category_id")
}

func (r *SQLRepository) loadRecord(ctx context.Context, q sqlx.QueryerContext, kind models.RecordKind, userID, id int64) (*models.MoneyRecord, error) {
	var record models.MoneyRecord
	query := r.recordsWithCategory(kind).Where(squirrel.Eq{"r.id": id, "r.user_id": userID})
	if err := get(ctx, q, &record, query); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound(string(kind))
		}
		return nil, apperr.Internal("select "+string(kind), err)
	}
	return &record, nil
}

// checkCategory verifies that categoryID belongs to userID and has the type
// records of kind require. A category owned by someone else is reported
// exactly like a missing one.
func (r *SQLRepository) checkCategory(ctx context.Context, q sqlx.QueryerContext, kind models.RecordKind, userID, categoryID int64) error {
	var typ string
	query := r.sb.Select("type").From("categories").Where(squirrel.Eq{"id": categoryID, "user_id": userID})
	if err := get(ctx, q, &typ, query); err != nil {
		if isNoRows(err) {
			return apperr.Reference("category")
		}
		return apperr.Internal("select category type", err)
	}
	if models.CategoryType(typ) != kind.CategoryType() {
		return apperr.Validation("category %d is not an %s category", categoryID, kind.CategoryType())
	}
	return nil
}

func (r *SQLRepository) CreateRecord(ctx context.Context, kind models.RecordKind, record *models.MoneyRecord) (*models.MoneyRecord, error) {
	var created *models.MoneyRecord
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.checkCategory(ctx, tx, kind, record.UserID, record.CategoryID); err != nil {
			return err
		}

		ts := now()
		insert := r.sb.Insert(kind.Table()).
			Columns("user_id", "category_id", "amount_cents", "description", "date", "created_at", "updated_at").
			Values(record.UserID, record.CategoryID, record.Amount, record.Description, record.Date, ts, ts).
			Suffix("RETURNING id")

		var id int64
		if err := get(ctx, tx, &id, insert); err != nil {
			switch constraintViolation(err) {
			case foreignKeyViolation:
				return apperr.Reference("category")
			case checkViolation:
				return apperr.Validation("amount must be greater than 0")
			}
			return apperr.Internal("insert "+string(kind), err)
		}

		var err error
		created, err = r.loadRecord(ctx, tx, kind, record.UserID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *SQLRepository) GetRecord(ctx context.Context, kind models.RecordKind, userID, id int64) (*models.MoneyRecord, error) {
	return r.loadRecord(ctx, r.db, kind, userID, id)
}

// ListRecords applies the optional filters with AND semantics and orders
// newest first.
func (r *SQLRepository) ListRecords(ctx context.Context, kind models.RecordKind, userID int64, filter models.RecordFilter, page models.Page) ([]models.MoneyRecord, error) {
	query := r.recordsWithCategory(kind).
		Where(squirrel.Eq{"r.user_id": userID}).
		OrderBy("r.date DESC", "r.id DESC")

	if filter.StartDate != nil {
		query = query.Where(squirrel.GtOrEq{"r.date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		query = query.Where(squirrel.LtOrEq{"r.date": *filter.EndDate})
	}
	if filter.CategoryID != nil {
		query = query.Where(squirrel.Eq{"r.category_id": *filter.CategoryID})
	}

	records := []models.MoneyRecord{}
	if err := selectAll(ctx, r.db, &records, pageOf(query, page)); err != nil {
		return nil, apperr.Internal(fmt.Sprintf("select %ss", kind), err)
	}
	return records, nil
}

// UpdateRecord changes only the fields set in upd. Ownership is checked,
// with a row lock where the backend supports one, before anything is written.
func (r *SQLRepository) UpdateRecord(ctx context.Context, kind models.RecordKind, userID, id int64, upd models.RecordUpdate) (*models.MoneyRecord, error) {
	var updated *models.MoneyRecord
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockOwned(ctx, tx, kind.Table(), string(kind), userID, id); err != nil {
			return err
		}

		query := r.sb.Update(kind.Table()).
			Set("updated_at", now()).
			Where(squirrel.Eq{"id": id, "user_id": userID})

		if upd.CategoryID != nil {
			if err := r.checkCategory(ctx, tx, kind, userID, *upd.CategoryID); err != nil {
				return err
			}
			query = query.Set("category_id", *upd.CategoryID)
		}
		if upd.Amount != nil {
			query = query.Set("amount_cents", *upd.Amount)
		}
		if upd.Description.Set {
			query = query.Set("description", upd.Description.Value)
		}
		if upd.Date != nil {
			query = query.Set("date", *upd.Date)
		}

		if _, err := exec(ctx, tx, query); err != nil {
			switch constraintViolation(err) {
			case foreignKeyViolation:
				return apperr.Reference("category")
			case checkViolation:
				return apperr.Validation("amount must be greater than 0")
			}
			return apperr.Internal("update "+string(kind), err)
		}

		var err error
		updated, err = r.loadRecord(ctx, tx, kind, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SQLRepository) DeleteRecord(ctx context.Context, kind models.RecordKind, userID, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockOwned(ctx, tx, kind.Table(), string(kind), userID, id); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, r.sb.Delete(kind.Table()).Where(squirrel.Eq{"id": id, "user_id": userID})); err != nil {
			return apperr.Internal("delete "+string(kind), err)
		}
		return nil
	})
}

// lockOwned fails with NotFound unless row id of table belongs to userID.
func (r *SQLRepository) lockOwned(ctx context.Context, tx *sqlx.Tx, table, entity string, userID, id int64) error {
	var owned int64
	query := r.sb.Select("id").From(table).Where(squirrel.Eq{"id": id, "user_id": userID})
	if r.dialect.LockSuffix != "" {
		query = query.Suffix(r.dialect.LockSuffix)
	}
	if err := get(ctx, tx, &owned, query); err != nil {
		if isNoRows(err) {
			return apperr.NotFound(entity)
		}
		return apperr.Internal("lock "+entity, err)
	}
	return nil
}

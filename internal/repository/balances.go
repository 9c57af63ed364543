package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

var balanceColumns = []string{"id", "user_id", "amount_cents", "currency", "date", "created_at"}

func (r *SQLRepository) CreateBalance(ctx context.Context, balance *models.Balance) (*models.Balance, error) {
	var created *models.Balance
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		insert := r.sb.Insert("balances").
			Columns("user_id", "amount_cents", "currency", "date", "created_at").
			Values(balance.UserID, balance.Amount, balance.Currency, balance.Date, now()).
			Suffix("RETURNING id")

		var id int64
		if err := get(ctx, tx, &id, insert); err != nil {
			if constraintViolation(err) == foreignKeyViolation {
				return apperr.Reference("user")
			}
			return apperr.Internal("insert balance", err)
		}

		var err error
		created, err = r.loadBalance(ctx, tx, balance.UserID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *SQLRepository) loadBalance(ctx context.Context, q sqlx.QueryerContext, userID, id int64) (*models.Balance, error) {
	var balance models.Balance
	query := r.sb.Select(balanceColumns...).From("balances").Where(squirrel.Eq{"id": id, "user_id": userID})
	if err := get(ctx, q, &balance, query); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFound("balance")
		}
		return nil, apperr.Internal("select balance", err)
	}
	return &balance, nil
}

func (r *SQLRepository) GetBalance(ctx context.Context, userID, id int64) (*models.Balance, error) {
	return r.loadBalance(ctx, r.db, userID, id)
}

func (r *SQLRepository) ListBalances(ctx context.Context, userID int64, filter models.BalanceFilter, page models.Page) ([]models.Balance, error) {
	query := r.sb.Select(balanceColumns...).
		From("balances").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC", "id DESC")

	if filter.StartDate != nil {
		query = query.Where(squirrel.GtOrEq{"date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		query = query.Where(squirrel.LtOrEq{"date": *filter.EndDate})
	}

	balances := []models.Balance{}
	if err := selectAll(ctx, r.db, &balances, pageOf(query, page)); err != nil {
		return nil, apperr.Internal("select balances", err)
	}
	return balances, nil
}

// LatestBalance returns the most recent snapshot, or nil when there is none
func (r *SQLRepository) LatestBalance(ctx context.Context, userID int64) (*models.Balance, error) {
	var balance models.Balance
	query := r.sb.Select(balanceColumns...).
		From("balances").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("date DESC", "id DESC").
		Limit(1)

	if err := get(ctx, r.db, &balance, query); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, apperr.Internal("select latest balance", err)
	}
	return &balance, nil
}

func (r *SQLRepository) UpdateBalance(ctx context.Context, userID, id int64, upd models.BalanceUpdate) (*models.Balance, error) {
	var updated *models.Balance
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockOwned(ctx, tx, "balances", "balance", userID, id); err != nil {
			return err
		}

		if upd.Amount != nil || upd.Currency != nil || upd.Date != nil {
			query := r.sb.Update("balances").Where(squirrel.Eq{"id": id, "user_id": userID})
			if upd.Amount != nil {
				query = query.Set("amount_cents", *upd.Amount)
			}
			if upd.Currency != nil {
				query = query.Set("currency", *upd.Currency)
			}
			if upd.Date != nil {
				query = query.Set("date", *upd.Date)
			}
			if _, err := exec(ctx, tx, query); err != nil {
				return apperr.Internal("update balance", err)
			}
		}

		var err error
		updated, err = r.loadBalance(ctx, tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *SQLRepository) DeleteBalance(ctx context.Context, userID, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.lockOwned(ctx, tx, "balances", "balance", userID, id); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, r.sb.Delete("balances").Where(squirrel.Eq{"id": id, "user_id": userID})); err != nil {
			return apperr.Internal("delete balance", err)
		}
		return nil
	})
}

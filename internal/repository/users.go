package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

var userColumns = []string{"id", "email", "name", "password_hash", "created_at", "updated_at"}

// CreateUser inserts user and fills in its id and timestamps
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	ts := now()
	query := r.sb.Insert("users").
		Columns("email", "name", "password_hash", "created_at", "updated_at").
		Values(user.Email, user.Name, user.PasswordHash, ts, ts).
		Suffix("RETURNING id")

	var id int64
	if err := get(ctx, r.db, &id, query); err != nil {
		if constraintViolation(err) == uniqueViolation {
			return apperr.Conflict("email already registered")
		}
		return apperr.Internal("insert user", err)
	}

	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetUserByEmail returns nil, nil when no user has that email
func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"email": email})
}

// GetUserByID returns nil, nil when the user does not exist
func (r *SQLRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": id})
}

func (r *SQLRepository) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	var user models.User
	err := get(ctx, r.db, &user, r.sb.Select(userColumns...).From("users").Where(where))
	if err != nil {
		if isNoRows(err) {
			return nil, nil // User not found
		}
		return nil, apperr.Internal("select user", err)
	}
	return &user, nil
}

func (r *SQLRepository) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	var user models.User
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := r.sb.Update("users").Set("updated_at", now()).Where(squirrel.Eq{"id": id})
		if upd.Name != nil {
			query = query.Set("name", *upd.Name)
		}
		if upd.PasswordHash != nil {
			query = query.Set("password_hash", *upd.PasswordHash)
		}

		n, err := exec(ctx, tx, query)
		if err != nil {
			return apperr.Internal("update user", err)
		}
		if n == 0 {
			return apperr.NotFound("user")
		}

		if err := get(ctx, tx, &user, r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id})); err != nil {
			return apperr.Internal("reload user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user and everything the user owns. The schema
// cascades as well; deleting children first keeps the order explicit.
func (r *SQLRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"incomes", "expenses", "balances", "categories"} {
			if _, err := exec(ctx, tx, r.sb.Delete(table).Where(squirrel.Eq{"user_id": id})); err != nil {
				return apperr.Internal("delete "+table, err)
			}
		}

		n, err := exec(ctx, tx, r.sb.Delete("users").Where(squirrel.Eq{"id": id}))
		if err != nil {
			return apperr.Internal("delete user", err)
		}
		if n == 0 {
			return apperr.NotFound("user")
		}
		return nil
	})
}

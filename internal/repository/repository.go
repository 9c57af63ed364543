package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/apperr"
	"github.com/rongwang/finance-server/internal/models"
)

// Repository defines the storage operations. Every method touching a
// category, money record or balance takes the owning user's id and scopes
// its SQL by it; there is no unscoped read.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Category operations
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*models.Category, error)
	ListCategories(ctx context.Context, userID int64, typ *models.CategoryType, page models.Page) ([]models.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error

	// Money record operations (incomes and expenses)
	CreateRecord(ctx context.Context, kind models.RecordKind, record *models.MoneyRecord) (*models.MoneyRecord, error)
	GetRecord(ctx context.Context, kind models.RecordKind, userID, id int64) (*models.MoneyRecord, error)
	ListRecords(ctx context.Context, kind models.RecordKind, userID int64, filter models.RecordFilter, page models.Page) ([]models.MoneyRecord, error)
	UpdateRecord(ctx context.Context, kind models.RecordKind, userID, id int64, upd models.RecordUpdate) (*models.MoneyRecord, error)
	DeleteRecord(ctx context.Context, kind models.RecordKind, userID, id int64) error

	// Balance snapshot operations
	CreateBalance(ctx context.Context, balance *models.Balance) (*models.Balance, error)
	GetBalance(ctx context.Context, userID, id int64) (*models.Balance, error)
	ListBalances(ctx context.Context, userID int64, filter models.BalanceFilter, page models.Page) ([]models.Balance, error)
	LatestBalance(ctx context.Context, userID int64) (*models.Balance, error)
	UpdateBalance(ctx context.Context, userID, id int64, upd models.BalanceUpdate) (*models.Balance, error)
	DeleteBalance(ctx context.Context, userID, id int64) error

	// Aggregations
	Totals(ctx context.Context, kind models.RecordKind, userID int64, start, end models.Date) (models.Totals, error)
	CategoryTotals(ctx context.Context, kind models.RecordKind, userID int64, start, end models.Date) ([]models.CategoryTotal, error)

	Ping(ctx context.Context) error
}

// SQLRepository implements the Repository interface on PostgreSQL or SQLite
type SQLRepository struct {
	db      *sqlx.DB
	dialect Dialect
	sb      squirrel.StatementBuilderType
	logger  *zap.Logger
}

// NewSQLRepository creates a repository for the driver db was opened with
func NewSQLRepository(db *sqlx.DB, logger *zap.Logger) (*SQLRepository, error) {
	dialect, err := DialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		logger:  logger,
	}, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction. Any error rolls the whole unit back and
// is returned unchanged.
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Internal("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Warn("Transaction rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperr.Internal("commit transaction", err)
	}
	return nil
}

func get(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func selectAll(ctx context.Context, q sqlx.QueryerContext, dest interface{}, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func exec(ctx context.Context, e sqlx.ExecerContext, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func pageOf(b squirrel.SelectBuilder, page models.Page) squirrel.SelectBuilder {
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		b = b.Offset(uint64(page.Offset))
	}
	return b
}

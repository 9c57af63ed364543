package config

import (
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/rongwang/finance-server/internal/repository"
)

// SetupDatabase runs pending migrations when enabled and opens the shared
// connection pool. The caller owns the returned handle and must close it.
func SetupDatabase(cfg *Config, logger *zap.Logger) (*sqlx.DB, error) {
	driver := cfg.Database.Driver
	dsn := cfg.Database.GetDSN()
	if driver == "sqlite" {
		dsn = SQLiteDSN(dsn)
	}

	if cfg.Database.AutoMigrate {
		if err := repository.RunMigrations(driver, dsn); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Database migrations applied", zap.String("driver", driver))
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	if driver == "sqlite" {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	logger.Info("Database connection established", zap.String("driver", driver))
	return db, nil
}

// SQLiteDSN makes sure foreign keys are enforced on every connection.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

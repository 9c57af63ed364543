package repository

import (
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// Dialect captures the differences between the supported SQL backends.
type Dialect struct {
	Name        string // migration set name
	Placeholder squirrel.PlaceholderFormat
	LockSuffix  string // row lock for ownership checks; SQLite locks the whole database on write
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: squirrel.Dollar, LockSuffix: "FOR UPDATE"}
	SQLite   = Dialect{Name: "sqlite", Placeholder: squirrel.Question}
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// now returns the timestamp written to created_at/updated_at columns.
// Postgres keeps microseconds, so finer precision would not round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

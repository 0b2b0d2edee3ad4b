// Package sqlstore implements the storage contract over database/sql for
// both SQLite and PostgreSQL. Queries are written with ? placeholders and
// rebound for the active driver.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/rosterfill/internal/migration"
	"github.com/julianstephens/rosterfill/internal/models"
)

type Store struct {
	db         *sql.DB
	driver     migration.Driver
	migrations fs.FS
	now        func() time.Time
}

// New wraps an open database. migrationFS holds the dialect's NNN_name.sql
// files.
func New(db *sql.DB, driver migration.Driver, migrationFS fs.FS) *Store {
	return &Store{
		db:         db,
		driver:     driver,
		migrations: migrationFS,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for updated_at stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Driver() migration.Driver {
	return s.driver
}

// Migrate applies pending migrations.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	return migration.NewRunner(s.db, s.migrations, s.driver).ApplyMigrations(ctx, logFn)
}

// ValidateSchema fails when the database was migrated by a newer binary.
func (s *Store) ValidateSchema(ctx context.Context) error {
	return migration.NewRunner(s.db, s.migrations, s.driver).ValidateVersion(ctx)
}

func (s *Store) SchemaStatus(ctx context.Context) (int, int, error) {
	st, err := migration.NewRunner(s.db, s.migrations, s.driver).Status(ctx)
	if err != nil {
		return 0, 0, err
	}
	return st.Current, st.Latest, nil
}

// rebind rewrites ? placeholders into the driver's positional form.
func (s *Store) rebind(query string) string {
	if s.driver != migration.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	str := v.String
	return &str
}

func toNull(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func blockRefColumns(b *models.BlockRef) (date, period, service sql.NullString) {
	if b == nil {
		return
	}
	return sql.NullString{String: b.Date, Valid: true},
		sql.NullString{String: string(b.Period), Valid: true},
		sql.NullString{String: b.ServiceCode, Valid: true}
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Package sqltable implements the remote table on a SQL database through gorm.
// Postgres is the production target; SQLite serves local runs and tests.
package sqltable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	// Pure-Go driver registered as "sqlite" and used by the sqlite dialector.
	_ "modernc.org/sqlite"

	"coverharvest/internal/record"
)

// Dialects accepted by Open.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Row is the table layout created by Migrate. Tables managed elsewhere only
// need the columns the harvest writes.
type Row struct {
	ID        uint   `gorm:"primaryKey"`
	Artist    string `gorm:"not null"`
	Title     string `gorm:"not null"`
	Year      string
	Genre     string
	Src       string `gorm:"uniqueIndex;not null"`
	Embedding string
	CreatedAt time.Time
}

// Table is a named SQL table.
type Table struct {
	db   *gorm.DB
	name string
}

// Open connects to dsn with the given dialect and binds the named table.
func Open(dialect, dsn, name string, logger *slog.Logger) (*Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("sqltable: table name is required")
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	default:
		return nil, fmt.Errorf("sqltable: unsupported dialect %q", dialect)
	}

	handler := slog.Default().Handler()
	if logger != nil {
		handler = logger.Handler()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.New(
			slog.NewLogLogger(handler, slog.LevelWarn),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("sqltable: open %s: %w", dialect, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqltable: database handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqltable: ping %s: %w", dialect, err)
	}
	return &Table{db: db, name: name}, nil
}

// Migrate creates the table with the Row layout when it is missing and adds
// any missing columns.
func (t *Table) Migrate(ctx context.Context) error {
	if err := t.db.WithContext(ctx).Table(t.name).AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("sqltable: migrate %s: %w", t.name, err)
	}
	return nil
}

// Columns lists the table's column names.
func (t *Table) Columns(ctx context.Context) ([]string, error) {
	types, err := t.db.WithContext(ctx).Migrator().ColumnTypes(t.name)
	if err != nil {
		return nil, fmt.Errorf("sqltable: columns of %s: %w", t.name, err)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("sqltable: table %s has no columns or does not exist", t.name)
	}
	columns := make([]string, 0, len(types))
	for _, ct := range types {
		columns = append(columns, ct.Name())
	}
	return columns, nil
}

// RowExists reports whether a row with column = value exists.
func (t *Table) RowExists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Table(t.name).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("sqltable: select from %s: %w", t.name, err)
	}
	return count > 0, nil
}

// Insert adds rec as a new row.
func (t *Table) Insert(ctx context.Context, rec record.Record) error {
	values := make(map[string]any, rec.Len())
	for _, f := range rec.Fields() {
		values[f.Name] = f.Value
	}
	if err := t.db.WithContext(ctx).Table(t.name).Create(values).Error; err != nil {
		return fmt.Errorf("sqltable: insert into %s: %w", t.name, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (t *Table) Close() error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

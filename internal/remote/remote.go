// Package remote defines the remote persistence collaborators of a harvest
// run: an object store for normalized covers and a table for release records.
//
// Back-ends live in subpackages: supabase (REST and Storage APIs), sqltable
// (gorm over Postgres or SQLite), and localstore (a directory exposed through
// afero). The orchestrator only sees the interfaces declared here.
package remote

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"coverharvest/internal/record"
)

// ErrUnknownColumn is returned when a record carries a key the remote table
// does not have.
var ErrUnknownColumn = errors.New("record field is not a column of the remote table")

// ObjectStore stores binary objects under slash-separated paths.
type ObjectStore interface {
	Exists(ctx context.Context, objectPath string) (bool, error)
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	PublicURL(objectPath string) string
}

// Table stores release records.
type Table interface {
	Columns(ctx context.Context) ([]string, error)
	RowExists(ctx context.Context, column, value string) (bool, error)
	Insert(ctx context.Context, rec record.Record) error
}

// ValidateColumns checks that every field of rec is one of columns.
func ValidateColumns(rec record.Record, columns []string, table string) error {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c] = struct{}{}
	}
	var missing []string
	for _, name := range rec.Names() {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not in table %q (columns: %s)", ErrUnknownColumn,
			strings.Join(missing, ", "), table, strings.Join(columns, ", "))
	}
	return nil
}

// ObjectPath maps a local cover path to its object key: the last two path
// segments, "<artist>/<title>.jpg".
func ObjectPath(localPath string) string {
	cleaned := path.Clean(strings.ReplaceAll(localPath, "\\", "/"))
	file := path.Base(cleaned)
	dir := path.Base(path.Dir(cleaned))
	if dir == "." || dir == "/" || dir == "" {
		return file
	}
	return dir + "/" + file
}

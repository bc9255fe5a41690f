// Package csvsink is the local, append-only CSV mirror of harvested records.
//
// The header is fixed by the first record ever written. Later records must
// carry the same field names, in any order; rows are written in header order.
// A failed append truncates the file back to its previous length so a partial
// row never persists.
package csvsink

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"coverharvest/internal/fileutil"
	"coverharvest/internal/record"
	"coverharvest/internal/services"
)

var (
	// ErrEmptyField is returned when a record has an empty name or value.
	ErrEmptyField = errors.New("record has an empty field")
	// ErrSchemaMismatch is returned when a record's field names differ from
	// the file header.
	ErrSchemaMismatch = errors.New("record fields do not match csv header")
)

// Sink appends records to one CSV file.
type Sink struct {
	path  string
	write func(f *os.File, data []byte) (int, error)
}

// Open validates path, creating the file and its parent directories when
// missing.
func Open(path string) (*Sink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "csvsink", "open", "csv path is empty", nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, services.Wrap(services.ErrConfiguration, "csvsink", "open",
			fmt.Sprintf("%s is not a .csv file", path), nil)
	}
	if err := fileutil.EnsureFile(path); err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}
	return &Sink{path: path, write: writeAll}, nil
}

func writeAll(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// Path returns the CSV file location.
func (s *Sink) Path() string { return s.path }

// Header returns the field names of the header row, or nil when the file has
// none yet.
func (s *Sink) Header() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return header, nil
}

// Append writes rec as one row, writing the header first when the file is
// empty.
func (s *Sink) Append(rec record.Record) error {
	if err := checkFields(rec); err != nil {
		return err
	}
	header, err := s.Header()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header == nil {
		header = rec.Names()
		if err := w.Write(header); err != nil {
			return fmt.Errorf("encode csv header: %w", err)
		}
	} else if !record.SameNames(header, rec.Names()) {
		return mismatch(header, rec)
	}
	row := make([]string, len(header))
	for i, name := range header {
		row[i], _ = rec.Get(name)
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("encode csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode csv row: %w", err)
	}
	return s.appendBytes(buf.Bytes())
}

func (s *Sink) appendBytes(data []byte) (err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open csv for append: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat csv: %w", err)
	}
	size := info.Size()

	defer func() {
		if err == nil {
			err = f.Close()
			return
		}
		if terr := f.Truncate(size); terr != nil {
			err = errors.Join(err, fmt.Errorf("restore csv length: %w", terr))
		}
		_ = f.Sync()
		_ = f.Close()
	}()

	if _, err = s.write(f, data); err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync csv: %w", err)
	}
	return nil
}

// Exists reports whether some row holds exactly rec's values. A file without
// a header holds no rows.
func (s *Sink) Exists(rec record.Record) (bool, error) {
	if err := checkFields(rec); err != nil {
		return false, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return false, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read csv header: %w", err)
	}
	if !record.SameNames(header, rec.Names()) {
		return false, mismatch(header, rec)
	}
	want := make([]string, len(header))
	for i, name := range header {
		want[i], _ = rec.Get(name)
	}
	r.FieldsPerRecord = len(header)
	r.ReuseRecord = true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read csv row: %w", err)
		}
		if slices.Equal(row, want) {
			return true, nil
		}
	}
}

func checkFields(rec record.Record) error {
	if rec.Len() == 0 {
		return services.Wrap(services.ErrSchema, "csvsink", "validate", "record has no fields", ErrEmptyField)
	}
	for _, f := range rec.Fields() {
		if f.Name == "" || f.Value == "" {
			return services.Wrap(services.ErrSchema, "csvsink", "validate",
				fmt.Sprintf("field %q", f.Name), ErrEmptyField)
		}
	}
	return nil
}

func mismatch(header []string, rec record.Record) error {
	return services.Wrap(services.ErrSchema, "csvsink", "append",
		fmt.Sprintf("header [%s] vs record [%s]", strings.Join(header, ","), strings.Join(rec.Names(), ",")),
		ErrSchemaMismatch)
}

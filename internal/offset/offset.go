// Package offset persists the resumption cursor of a harvest run: the index of
// the next artist to process.
//
// The cursor lives in a plain-text file holding a single integer. Writes go
// through a temp file and rename so an interrupted flush leaves either the
// previous value or the new one. Completing the artist list tombstones the
// tracker: the file is deleted and later flushes are ignored rather than
// recreating it. A flock beside the file keeps two runs off the same cursor.
package offset

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"coverharvest/internal/fileutil"
	"coverharvest/internal/logging"
	"coverharvest/internal/services"
)

// ErrTombstoned is returned by Advance once the tracker has been tombstoned.
var ErrTombstoned = errors.New("offset tracker is tombstoned")

// ErrLocked is returned by Open when another process holds the cursor.
var ErrLocked = errors.New("offset file is locked by another run")

// Tracker owns one offset file for the duration of a run.
type Tracker struct {
	path       string
	lock       *flock.Flock
	logger     *slog.Logger
	value      int
	tombstoned bool
}

// LockPath returns the lock file used for path.
func LockPath(path string) string {
	return path + ".lock"
}

// Read returns the value stored at path without locking or creating it. A
// missing or empty file reads as zero.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read offset file: %w", err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (int, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 {
		return 0, services.Wrap(services.ErrFormat, "offset", "parse",
			fmt.Sprintf("%s does not hold a non-negative integer: %q", path, text), err)
	}
	return value, nil
}

// Open locks path, creates it when missing and loads the stored value.
func Open(path string, logger *slog.Logger) (*Tracker, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("offset file path is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := fileutil.EnsureFile(path); err != nil {
		return nil, fmt.Errorf("create offset file: %w", err)
	}

	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire offset lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	value, err := Read(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	logger.Debug("offset loaded", logging.String("path", path), logging.Int("offset", value))
	return &Tracker{path: path, lock: lock, logger: logger, value: value}, nil
}

// Path returns the offset file location.
func (t *Tracker) Path() string { return t.path }

// Offset returns the in-memory cursor.
func (t *Tracker) Offset() int { return t.value }

// Tombstoned reports whether Tombstone has been called.
func (t *Tracker) Tombstoned() bool { return t.tombstoned }

// Advance moves the in-memory cursor past one fully processed artist.
func (t *Tracker) Advance() error {
	if t.tombstoned {
		return ErrTombstoned
	}
	t.value++
	return nil
}

// Flush persists the in-memory cursor. A tombstoned tracker logs a warning and
// leaves the filesystem untouched.
func (t *Tracker) Flush() error {
	if t.tombstoned {
		logging.WarnWithContext(t.logger, "offset flush ignored after tombstone", "offset_flush_ignored",
			logging.String("path", t.path),
			logging.String(logging.FieldImpact, "offset file stays deleted"),
			logging.String(logging.FieldErrorHint, "none; the artist list was completed"),
		)
		return nil
	}
	if err := fileutil.WriteFileAtomic(t.path, []byte(strconv.Itoa(t.value)), 0o644); err != nil {
		return fmt.Errorf("write offset file: %w", err)
	}
	return nil
}

// Tombstone deletes the offset file and disables further writes. Repeated
// calls warn and return nil.
func (t *Tracker) Tombstone() error {
	if t.tombstoned {
		logging.WarnWithContext(t.logger, "offset already tombstoned", "offset_tombstone_repeated",
			logging.String("path", t.path),
			logging.String(logging.FieldImpact, "none"),
		)
		return nil
	}
	if err := fileutil.RemoveIfExists(t.path); err != nil {
		return fmt.Errorf("delete offset file: %w", err)
	}
	t.tombstoned = true
	t.logger.Debug("offset tombstoned", logging.String("path", t.path))
	return nil
}

// Close releases the lock. A tombstoned tracker also removes the lock file so
// a completed run leaves nothing behind.
func (t *Tracker) Close() error {
	if t.lock == nil {
		return nil
	}
	err := t.lock.Unlock()
	if t.tombstoned {
		_ = fileutil.RemoveIfExists(LockPath(t.path))
	}
	t.lock = nil
	return err
}

// Reset deletes the offset file at path so the next run starts from zero.
func Reset(path string) error {
	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire offset lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = fileutil.RemoveIfExists(LockPath(path))
	}()
	if err := fileutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("delete offset file: %w", err)
	}
	return nil
}

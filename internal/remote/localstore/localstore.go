// Package localstore implements the remote object store on a directory, for
// runs without a hosted bucket.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Store keeps objects under root on fs.
type Store struct {
	fs        afero.Fs
	root      string
	publicURL string
}

// New returns a Store rooted at root. publicURL is the prefix used by
// PublicURL; objects are addressed as publicURL + "/" + objectPath.
func New(fs afero.Fs, root, publicURL string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("localstore: root directory is required")
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create %s: %w", root, err)
	}
	return &Store{fs: fs, root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *Store) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(objectPath, "\\", "/"))
	if clean == "/" {
		return "", fmt.Errorf("localstore: invalid object path %q", objectPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Exists reports whether objectPath is present.
func (s *Store) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, target)
	if err != nil {
		return false, fmt.Errorf("localstore: stat %s: %w", objectPath, err)
	}
	return ok, nil
}

// Upload writes data to objectPath. An existing object is left untouched and
// reported as os.ErrExist.
func (s *Store) Upload(ctx context.Context, objectPath string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("localstore: create directory for %s: %w", objectPath, err)
	}
	f, err := s.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("localstore: create %s: %w", objectPath, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(target)
		return fmt.Errorf("localstore: write %s: %w", objectPath, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(target)
		return fmt.Errorf("localstore: close %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL returns the address of objectPath under the public prefix.
func (s *Store) PublicURL(objectPath string) string {
	segments := strings.Split(strings.Trim(strings.ReplaceAll(objectPath, "\\", "/"), "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + strings.Join(segments, "/")
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"coverharvest/internal/release"
)

// Validate ensures the configuration is structurally usable. Remote
// credentials are checked separately by RequireRemote so read-only commands
// work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateMusicBrainz(); err != nil {
		return err
	}
	if err := c.validateCover(); err != nil {
		return err
	}
	if err := c.validateRemoteBackends(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.ArtistsFile == "" {
		return errors.New("paths.artists_file must be set")
	}
	if c.Paths.CSVFile == "" {
		return errors.New("paths.csv_file must be set")
	}
	if !strings.EqualFold(filepath.Ext(c.Paths.CSVFile), ".csv") {
		return fmt.Errorf("paths.csv_file must end in .csv, got %q", c.Paths.CSVFile)
	}
	if c.Paths.CoverDir == "" {
		return errors.New("paths.cover_dir must be set")
	}
	return nil
}

func (c *Config) validateFilter() error {
	if len(c.Filter.Genres) == 0 {
		return errors.New("filter.genres must list at least one genre")
	}
	if _, err := release.ParseDate(c.Filter.ReleasedBy); err != nil {
		return fmt.Errorf("filter.released_by: %w", err)
	}
	return nil
}

func (c *Config) validateMusicBrainz() error {
	if c.MusicBrainz.MaxAttempts <= 0 {
		return errors.New("musicbrainz.max_attempts must be positive")
	}
	if c.MusicBrainz.BackoffBaseMS <= 0 {
		return errors.New("musicbrainz.backoff_base_ms must be positive")
	}
	if c.MusicBrainz.MinIntervalMS < 0 {
		return errors.New("musicbrainz.min_interval_ms must be zero or positive")
	}
	if c.MusicBrainz.TimeoutSeconds <= 0 {
		return errors.New("musicbrainz.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateCover() error {
	if c.Cover.Size <= 0 {
		return errors.New("cover.size must be positive")
	}
	if c.Cover.Quality < 1 || c.Cover.Quality > 100 {
		return errors.New("cover.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateRemoteBackends() error {
	switch c.Remote.TableBackend {
	case TableBackendSupabase, TableBackendPostgres, TableBackendSQLite:
	default:
		return fmt.Errorf("remote.table_backend: unsupported value %q (want supabase, postgres or sqlite)", c.Remote.TableBackend)
	}
	switch c.Remote.ObjectBackend {
	case ObjectBackendSupabase, ObjectBackendLocal:
	default:
		return fmt.Errorf("remote.object_backend: unsupported value %q (want supabase or local)", c.Remote.ObjectBackend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// RequireRemote checks that every credential the selected back-ends need is
// present.
func (c *Config) RequireRemote() error {
	if c.Remote.Table == "" {
		return errors.New("remote.table is required. Set SUPABASE_TABLE or edit the config file")
	}
	needsSupabase := c.Remote.TableBackend == TableBackendSupabase || c.Remote.ObjectBackend == ObjectBackendSupabase
	if needsSupabase {
		if c.Remote.URL == "" {
			return errors.New("remote.url is required for the supabase back-end. Set SUPABASE_URL or edit the config file")
		}
		if c.Remote.Key == "" {
			return errors.New("remote.key is required for the supabase back-end. Set SUPABASE_KEY or edit the config file")
		}
	}
	if c.Remote.ObjectBackend == ObjectBackendSupabase && c.Remote.Bucket == "" {
		return errors.New("remote.bucket is required for supabase storage. Set SUPABASE_BUCKET or edit the config file")
	}
	if (c.Remote.TableBackend == TableBackendPostgres || c.Remote.TableBackend == TableBackendSQLite) && c.Remote.DatabaseDSN == "" {
		return fmt.Errorf("remote.database_dsn is required for the %s back-end. Set DATABASE_URL or edit the config file", c.Remote.TableBackend)
	}
	if strings.TrimSpace(c.Embedding.Endpoint) == "" {
		return errors.New("embedding.endpoint is required. Set COVERHARVEST_EMBEDDING_ENDPOINT or edit the config file")
	}
	return nil
}

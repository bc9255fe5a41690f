package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"coverharvest/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input, output, and state file locations.
type Paths struct {
	ArtistsFile string `toml:"artists_file"`
	CSVFile     string `toml:"csv_file"`
	CoverDir    string `toml:"cover_dir"`
	OffsetFile  string `toml:"offset_file"`
	LogDir      string `toml:"log_dir"`
	EnvFile     string `toml:"env_file"`
}

// Filter contains the release group selection rules.
type Filter struct {
	Genres      []string          `toml:"genres"`
	GenreLabels map[string]string `toml:"genre_labels"`
	ReleasedBy  string            `toml:"released_by"`
}

// MusicBrainz contains metadata and cover art service settings.
type MusicBrainz struct {
	BaseURL        string `toml:"base_url"`
	CoverArtURL    string `toml:"cover_art_url"`
	UserAgent      string `toml:"user_agent"`
	MinIntervalMS  int    `toml:"min_interval_ms"`
	MaxAttempts    int    `toml:"max_attempts"`
	BackoffBaseMS  int    `toml:"backoff_base_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Cover contains image normalization settings.
type Cover struct {
	Size    int `toml:"size"`
	Quality int `toml:"quality"`
}

// Embedding contains the image embedding service settings.
type Embedding struct {
	Endpoint       string `toml:"endpoint"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Remote contains the remote table and object store settings.
type Remote struct {
	TableBackend    string `toml:"table_backend"`
	ObjectBackend   string `toml:"object_backend"`
	URL             string `toml:"url"`
	Key             string `toml:"key"`
	Table           string `toml:"table"`
	Bucket          string `toml:"bucket"`
	DatabaseDSN     string `toml:"database_dsn"`
	LocalObjectsDir string `toml:"local_objects_dir"`
	LocalPublicURL  string `toml:"local_public_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for coverharvest.
//
// Configuration sections:
//   - Paths: artist list, CSV mirror, cover directory, offset file, logs
//   - Filter: genre allow-list, display labels, release cutoff
//   - MusicBrainz: metadata/cover endpoints, politeness and retry policy
//   - Cover: normalized image size and JPEG quality
//   - Embedding: embedding service endpoint and model
//   - Remote: table and object store back-ends and credentials
//   - Logging: log format, level, and retention
type Config struct {
	Paths       Paths       `toml:"paths"`
	Filter      Filter      `toml:"filter"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	Cover       Cover       `toml:"cover"`
	Embedding   Embedding   `toml:"embedding"`
	Remote      Remote      `toml:"remote"`
	Logging     Logging     `toml:"logging"`
}

// ErrSampleExists reports that WriteSample refused to replace a file.
var ErrSampleExists = errors.New("config file already exists")

// DefaultConfigPath returns the expanded per-user configuration location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the configuration at path, or searches the per-user location and
// then ./coverharvest.toml when path is empty. A missing file is not an
// error: defaults, .env values and the environment still apply. Load returns
// the config, the path it settled on, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, found, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if found {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := loadDotEnv(cfg.Paths.EnvFile); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, found, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func locate(explicit string) (string, bool, error) {
	if explicit != "" {
		p, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		ok, err := isFile(p)
		return p, ok, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := ExpandPath("coverharvest.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	default:
		return !info.IsDir(), nil
	}
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.CoverDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.CSVFile),
		filepath.Dir(c.Paths.OffsetFile),
	}
	if c.Remote.ObjectBackend == ObjectBackendLocal {
		dirs = append(dirs, c.Remote.LocalObjectsDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MinInterval returns the pause enforced between MusicBrainz requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.MusicBrainz.MinIntervalMS) * time.Millisecond
}

// BackoffBase returns the delay after the first transient failure.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.MusicBrainz.BackoffBaseMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout for MusicBrainz and the
// Cover Art Archive.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MusicBrainz.TimeoutSeconds) * time.Second
}

// EmbeddingTimeout returns the per-request timeout for the embedding service.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSeconds) * time.Second
}

// GenreLabel maps a matched genre to its display form.
func (c *Config) GenreLabel(genre string) string {
	if label, ok := c.Filter.GenreLabels[strings.ToLower(genre)]; ok {
		return label
	}
	return genre
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.Remote.Key != "" {
		redacted.Remote.Key = "********"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// ExpandPath resolves a leading ~ to the home directory and returns an
// absolute, cleaned path. The empty string is returned unchanged.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// CreateSample writes the commented sample configuration to path, replacing
// any existing file.
func CreateSample(path string) error {
	return WriteSample(path, true)
}

// WriteSample writes the sample configuration atomically. Without overwrite
// an existing file yields ErrSampleExists.
func WriteSample(path string, overwrite bool) error {
	if !overwrite {
		exists, err := isFile(path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w at %s", ErrSampleExists, path)
		}
	}
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

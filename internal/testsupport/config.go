package testsupport

import (
	"path/filepath"
	"testing"

	"coverharvest/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose paths all live in a per-test temp
// directory. Remote storage defaults to the SQLite table and the local object
// store so no network is needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ArtistsFile = filepath.Join(base, "data", "artists.txt")
	cfgVal.Paths.CSVFile = filepath.Join(base, "data", "db.csv")
	cfgVal.Paths.CoverDir = filepath.Join(base, "data", "covers")
	cfgVal.Paths.OffsetFile = filepath.Join(base, ".offset")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.EnvFile = ""
	cfgVal.Remote.TableBackend = config.TableBackendSQLite
	cfgVal.Remote.DatabaseDSN = filepath.Join(base, "albums.db")
	cfgVal.Remote.Table = "albums"
	cfgVal.Remote.ObjectBackend = config.ObjectBackendLocal
	cfgVal.Remote.LocalObjectsDir = filepath.Join(base, "objects")
	cfgVal.Remote.LocalPublicURL = "file://" + filepath.Join(base, "objects")
	cfgVal.MusicBrainz.MinIntervalMS = 0
	cfgVal.Cover.Size = 16

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSupabase points the config at a Supabase project for both the table and
// the object store.
func WithSupabase(url, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.TableBackend = config.TableBackendSupabase
		b.cfg.Remote.ObjectBackend = config.ObjectBackendSupabase
		b.cfg.Remote.URL = url
		b.cfg.Remote.Key = key
		b.cfg.Remote.Bucket = "covers"
	}
}

// WithMusicBrainz overrides the metadata and cover art endpoints.
func WithMusicBrainz(baseURL, coverArtURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MusicBrainz.BaseURL = baseURL
		b.cfg.MusicBrainz.CoverArtURL = coverArtURL
	}
}

// WithEmbeddingEndpoint overrides the embedding service URL.
func WithEmbeddingEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Embedding.Endpoint = endpoint
	}
}

// WithArtists writes names to the configured artist list.
func WithArtists(names ...string) ConfigOption {
	return func(b *configBuilder) {
		WriteLines(b.t, b.cfg.Paths.ArtistsFile, names...)
	}
}

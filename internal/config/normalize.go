package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFilter()
	c.normalizeMusicBrainz()
	c.normalizeEmbedding()
	if err := c.normalizeRemote(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ArtistsFile, err = ExpandPath(strings.TrimSpace(c.Paths.ArtistsFile)); err != nil {
		return fmt.Errorf("paths.artists_file: %w", err)
	}
	if c.Paths.CSVFile, err = ExpandPath(strings.TrimSpace(c.Paths.CSVFile)); err != nil {
		return fmt.Errorf("paths.csv_file: %w", err)
	}
	if c.Paths.CoverDir, err = ExpandPath(strings.TrimSpace(c.Paths.CoverDir)); err != nil {
		return fmt.Errorf("paths.cover_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OffsetFile) == "" {
		c.Paths.OffsetFile = defaultOffsetFile
	}
	if c.Paths.OffsetFile, err = ExpandPath(strings.TrimSpace(c.Paths.OffsetFile)); err != nil {
		return fmt.Errorf("paths.offset_file: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFilter() {
	genres := make([]string, 0, len(c.Filter.Genres))
	seen := make(map[string]struct{}, len(c.Filter.Genres))
	for _, genre := range c.Filter.Genres {
		genre = strings.ToLower(strings.TrimSpace(genre))
		if genre == "" {
			continue
		}
		if _, dup := seen[genre]; dup {
			continue
		}
		seen[genre] = struct{}{}
		genres = append(genres, genre)
	}
	c.Filter.Genres = genres

	labels := make(map[string]string, len(c.Filter.GenreLabels))
	for genre, label := range c.Filter.GenreLabels {
		genre = strings.ToLower(strings.TrimSpace(genre))
		label = strings.TrimSpace(label)
		if genre == "" || label == "" {
			continue
		}
		labels[genre] = label
	}
	c.Filter.GenreLabels = labels
	c.Filter.ReleasedBy = strings.TrimSpace(c.Filter.ReleasedBy)
}

func (c *Config) normalizeMusicBrainz() {
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMusicBrainzURL
	}
	c.MusicBrainz.CoverArtURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.CoverArtURL), "/")
	if c.MusicBrainz.CoverArtURL == "" {
		c.MusicBrainz.CoverArtURL = defaultCoverArtURL
	}
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
	if c.MusicBrainz.UserAgent == "" {
		c.MusicBrainz.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeEmbedding() {
	if value, ok := os.LookupEnv("COVERHARVEST_EMBEDDING_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Embedding.Endpoint = value
	}
	c.Embedding.Endpoint = strings.TrimSpace(c.Embedding.Endpoint)
	c.Embedding.Model = strings.TrimSpace(c.Embedding.Model)
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}
}

func (c *Config) normalizeRemote() error {
	c.Remote.TableBackend = strings.ToLower(strings.TrimSpace(c.Remote.TableBackend))
	if c.Remote.TableBackend == "" {
		c.Remote.TableBackend = TableBackendSupabase
	}
	c.Remote.ObjectBackend = strings.ToLower(strings.TrimSpace(c.Remote.ObjectBackend))
	if c.Remote.ObjectBackend == "" {
		c.Remote.ObjectBackend = ObjectBackendSupabase
	}

	envFallback(&c.Remote.URL, "SUPABASE_URL")
	envFallback(&c.Remote.Key, "SUPABASE_KEY")
	envFallback(&c.Remote.Table, "SUPABASE_TABLE")
	envFallback(&c.Remote.Bucket, "SUPABASE_BUCKET")
	envFallback(&c.Remote.DatabaseDSN, "DATABASE_URL")
	c.Remote.URL = strings.TrimRight(c.Remote.URL, "/")

	if strings.TrimSpace(c.Remote.LocalObjectsDir) == "" {
		c.Remote.LocalObjectsDir = defaultLocalObjectsDir
	}
	var err error
	if c.Remote.LocalObjectsDir, err = ExpandPath(strings.TrimSpace(c.Remote.LocalObjectsDir)); err != nil {
		return fmt.Errorf("remote.local_objects_dir: %w", err)
	}
	c.Remote.LocalPublicURL = strings.TrimRight(strings.TrimSpace(c.Remote.LocalPublicURL), "/")
	if c.Remote.LocalPublicURL == "" {
		c.Remote.LocalPublicURL = "file://" + c.Remote.LocalObjectsDir
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envFallback fills an empty setting from the environment.
func envFallback(target *string, key string) {
	*target = strings.TrimSpace(*target)
	if *target != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}

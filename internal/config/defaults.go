package config

const (
	defaultConfigPath        = "~/.config/coverharvest/config.toml"
	defaultArtistsFile       = "data/artists.txt"
	defaultCSVFile           = "data/db.csv"
	defaultCoverDir          = "data/covers"
	defaultOffsetFile        = ".offset"
	defaultLogDir            = "~/.local/share/coverharvest/logs"
	defaultEnvFile           = ".env"
	defaultReleasedBy        = "2023-12-31"
	defaultMusicBrainzURL    = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL       = "https://coverartarchive.org"
	defaultUserAgent         = "coverharvest/dev"
	defaultMinIntervalMS     = 1000
	defaultMaxAttempts       = 5
	defaultBackoffBaseMS     = 1000
	defaultRequestTimeout    = 30
	defaultCoverSize         = 1024
	defaultCoverQuality      = 75
	defaultEmbeddingEndpoint = "http://127.0.0.1:8000/embed"
	defaultEmbeddingModel    = "clip-ViT-B-32"
	defaultEmbeddingTimeout  = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultLocalObjectsDir   = "data/objects"

	// TableBackendSupabase stores rows through the Supabase REST API.
	TableBackendSupabase = "supabase"
	// TableBackendPostgres stores rows directly in Postgres.
	TableBackendPostgres = "postgres"
	// TableBackendSQLite stores rows in a local SQLite database.
	TableBackendSQLite = "sqlite"
	// ObjectBackendSupabase stores covers in Supabase Storage.
	ObjectBackendSupabase = "supabase"
	// ObjectBackendLocal stores covers in a local directory.
	ObjectBackendLocal = "local"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArtistsFile: defaultArtistsFile,
			CSVFile:     defaultCSVFile,
			CoverDir:    defaultCoverDir,
			OffsetFile:  defaultOffsetFile,
			LogDir:      defaultLogDir,
			EnvFile:     defaultEnvFile,
		},
		Filter: Filter{
			Genres:      []string{"rock", "pop", "r&b", "hip hop"},
			GenreLabels: map[string]string{"hip hop": "hip-hop"},
			ReleasedBy:  defaultReleasedBy,
		},
		MusicBrainz: MusicBrainz{
			BaseURL:        defaultMusicBrainzURL,
			CoverArtURL:    defaultCoverArtURL,
			UserAgent:      defaultUserAgent,
			MinIntervalMS:  defaultMinIntervalMS,
			MaxAttempts:    defaultMaxAttempts,
			BackoffBaseMS:  defaultBackoffBaseMS,
			TimeoutSeconds: defaultRequestTimeout,
		},
		Cover: Cover{
			Size:    defaultCoverSize,
			Quality: defaultCoverQuality,
		},
		Embedding: Embedding{
			Endpoint:       defaultEmbeddingEndpoint,
			Model:          defaultEmbeddingModel,
			TimeoutSeconds: defaultEmbeddingTimeout,
		},
		Remote: Remote{
			TableBackend:    TableBackendSupabase,
			ObjectBackend:   ObjectBackendSupabase,
			LocalObjectsDir: defaultLocalObjectsDir,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

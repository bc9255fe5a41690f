package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"coverharvest/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", filepath.Join(dir, "home"))
	for _, key := range []string{"SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_TABLE", "SUPABASE_BUCKET", "DATABASE_URL", "COVERHARVEST_EMBEDDING_ENDPOINT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaultsExpandPaths(t *testing.T) {
	dir := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != filepath.Join(dir, "home", ".config", "coverharvest", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.CSVFile != filepath.Join(dir, "data", "db.csv") {
		t.Fatalf("unexpected csv path %q", cfg.Paths.CSVFile)
	}
	if cfg.Paths.OffsetFile != filepath.Join(dir, ".offset") {
		t.Fatalf("unexpected offset path %q", cfg.Paths.OffsetFile)
	}
	if cfg.Paths.LogDir != filepath.Join(dir, "home", ".local", "share", "coverharvest", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	want := []string{"rock", "pop", "r&b", "hip hop"}
	if strings.Join(cfg.Filter.Genres, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected genres %v", cfg.Filter.Genres)
	}
	if cfg.GenreLabel("hip hop") != "hip-hop" || cfg.GenreLabel("rock") != "rock" {
		t.Fatalf("unexpected genre labels %v", cfg.Filter.GenreLabels)
	}
	if cfg.Filter.ReleasedBy != "2023-12-31" {
		t.Fatalf("unexpected cutoff %q", cfg.Filter.ReleasedBy)
	}
	if cfg.Cover.Size != 1024 {
		t.Fatalf("unexpected cover size %d", cfg.Cover.Size)
	}
	if cfg.Remote.LocalPublicURL != "file://"+filepath.Join(dir, "data", "objects") {
		t.Fatalf("unexpected local public url %q", cfg.Remote.LocalPublicURL)
	}
}

func TestLoadReadsProjectFile(t *testing.T) {
	dir := isolate(t)
	content := `
[paths]
csv_file = "out/albums.CSV"

[filter]
genres = [" Rock ", "JAZZ", "rock"]
released_by = "1999"

[remote]
table_backend = "SQLite"
database_dsn = "harvest.db"
table = "albums"
`
	if err := os.WriteFile(filepath.Join(dir, "coverharvest.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != filepath.Join(dir, "coverharvest.toml") {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if strings.Join(cfg.Filter.Genres, ",") != "rock,jazz" {
		t.Fatalf("expected normalized genres, got %v", cfg.Filter.Genres)
	}
	if cfg.Remote.TableBackend != config.TableBackendSQLite {
		t.Fatalf("unexpected table backend %q", cfg.Remote.TableBackend)
	}
	if cfg.Paths.CSVFile != filepath.Join(dir, "out", "albums.CSV") {
		t.Fatalf("unexpected csv path %q", cfg.Paths.CSVFile)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"csv extension":  "[paths]\ncsv_file = \"data/db.txt\"\n",
		"empty genres":   "[filter]\ngenres = []\n",
		"bad cutoff":     "[filter]\nreleased_by = \"31/12/2023\"\n",
		"table backend":  "[remote]\ntable_backend = \"mysql\"\n",
		"object backend": "[remote]\nobject_backend = \"s3\"\n",
		"log format":     "[logging]\nformat = \"xml\"\n",
		"quality":        "[cover]\nquality = 0\n",
		"attempts":       "[musicbrainz]\nmax_attempts = 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}
}

func TestDotEnvSuppliesCredentials(t *testing.T) {
	dir := isolate(t)
	env := "SUPABASE_URL=https://example.supabase.co/\nSUPABASE_KEY=secret\nSUPABASE_TABLE=albums\nSUPABASE_BUCKET=covers\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Remote.URL != "https://example.supabase.co" {
		t.Fatalf("unexpected url %q", cfg.Remote.URL)
	}
	if cfg.Remote.Key != "secret" || cfg.Remote.Table != "albums" || cfg.Remote.Bucket != "covers" {
		t.Fatalf("unexpected remote config %+v", cfg.Remote)
	}
	if err := cfg.RequireRemote(); err != nil {
		t.Fatalf("RequireRemote: %v", err)
	}
}

func TestEnvironmentWinsOverDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SUPABASE_TABLE=from_file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("SUPABASE_TABLE", "from_env")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Remote.Table != "from_env" {
		t.Fatalf("expected environment value, got %q", cfg.Remote.Table)
	}
}

func TestRequireRemote(t *testing.T) {
	base := config.Default()
	base.Remote.Table = "albums"

	supabase := base
	if err := supabase.RequireRemote(); err == nil {
		t.Fatal("expected missing supabase url error")
	}

	sqlite := base
	sqlite.Remote.TableBackend = config.TableBackendSQLite
	sqlite.Remote.ObjectBackend = config.ObjectBackendLocal
	if err := sqlite.RequireRemote(); err == nil {
		t.Fatal("expected missing database dsn error")
	}
	sqlite.Remote.DatabaseDSN = "harvest.db"
	if err := sqlite.RequireRemote(); err != nil {
		t.Fatalf("RequireRemote: %v", err)
	}

	noTable := sqlite
	noTable.Remote.Table = ""
	if err := noTable.RequireRemote(); err == nil {
		t.Fatal("expected missing table error")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "sample", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if parsed.Cover != def.Cover || parsed.MusicBrainz != def.MusicBrainz || parsed.Embedding != def.Embedding {
		t.Fatalf("sample drifted from defaults: %+v", parsed)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
}

func TestEncodeRedactsKey(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Key = "super-secret"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "super-secret") {
		t.Fatal("expected key to be redacted")
	}
	if cfg.Remote.Key != "super-secret" {
		t.Fatal("Encode must not modify the receiver")
	}
}

func TestWriteSampleRespectsOverwrite(t *testing.T) {
	path := filepath.Join(isolate(t), "config.toml")
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if err := config.WriteSample(path, false); !errors.Is(err, config.ErrSampleExists) {
		t.Fatalf("expected ErrSampleExists, got %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != "# mine\n" {
		t.Fatalf("existing file modified: %q", data)
	}
	if err := config.WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample overwrite: %v", err)
	}
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample not written: %q", data)
	}
}

func TestLoadReportsParsePosition(t *testing.T) {
	path := filepath.Join(isolate(t), "broken.toml")
	if err := os.WriteFile(path, []byte("[paths]\ncsv_file = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "broken.toml:2:") {
		t.Fatalf("expected positioned parse error, got %v", err)
	}
}

package harvest_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"coverharvest/internal/config"
	"coverharvest/internal/csvsink"
	"coverharvest/internal/harvest"
	"coverharvest/internal/logging"
	"coverharvest/internal/musicbrainz"
	"coverharvest/internal/offset"
	"coverharvest/internal/prompt"
	"coverharvest/internal/record"
	"coverharvest/internal/release"
	"coverharvest/internal/remote"
	"coverharvest/internal/services"
	"coverharvest/internal/testsupport"
)

type fakeMetadata struct {
	hits     map[string]musicbrainz.ArtistHit
	groupIDs map[string][]string
	groups   map[string]release.Group
	searched []string
	onList   func(artistID string)
}

func (m *fakeMetadata) SearchArtist(_ context.Context, name string) (musicbrainz.ArtistHit, error) {
	m.searched = append(m.searched, name)
	hit, ok := m.hits[name]
	if !ok {
		return musicbrainz.ArtistHit{}, musicbrainz.ErrArtistNotFound
	}
	return hit, nil
}

func (m *fakeMetadata) ReleaseGroupIDs(_ context.Context, artistID string) ([]string, error) {
	if m.onList != nil {
		m.onList(artistID)
	}
	return m.groupIDs[artistID], nil
}

func (m *fakeMetadata) ReleaseGroup(ctx context.Context, id string) (release.Group, error) {
	if err := ctx.Err(); err != nil {
		return release.Group{}, err
	}
	return m.groups[id], nil
}

type fakeCovers struct {
	image   []byte
	fetched []string
}

func (c *fakeCovers) Front(_ context.Context, id string) ([]byte, error) {
	c.fetched = append(c.fetched, id)
	return c.image, nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(context.Context, []byte) ([]float32, error) {
	return []float32{0.5, -0.25}, nil
}

type fakeObjects struct {
	objects map[string][]byte
}

func (o *fakeObjects) Exists(_ context.Context, p string) (bool, error) {
	_, ok := o.objects[p]
	return ok, nil
}

func (o *fakeObjects) Upload(_ context.Context, p string, data []byte, _ string) error {
	o.objects[p] = data
	return nil
}

func (o *fakeObjects) PublicURL(p string) string { return "https://cdn.test/covers/" + p }

type fakeTable struct {
	columns []string
	rows    []record.Record
}

func (t *fakeTable) Columns(context.Context) ([]string, error) { return t.columns, nil }

func (t *fakeTable) RowExists(_ context.Context, column, value string) (bool, error) {
	for _, r := range t.rows {
		if v, _ := r.Get(column); v == value {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTable) Insert(_ context.Context, rec record.Record) error {
	t.rows = append(t.rows, rec)
	return nil
}

type fixture struct {
	paths    config.Paths
	metadata *fakeMetadata
	covers   *fakeCovers
	objects  *fakeObjects
	table    *fakeTable
	sink     *csvsink.Sink
	logger   *slog.Logger
	prompter release.Prompter
	// wrapOffset, when set, decorates the real tracker handed to the harvester.
	wrapOffset func(harvest.Offset) harvest.Offset
}

func group(id, artist, title, date string, genres ...release.Genre) release.Group {
	return release.Group{
		ID:               id,
		Title:            title,
		PrimaryType:      "Album",
		FirstReleaseDate: date,
		ArtistCredit:     []release.Credit{{Name: artist, Artist: release.Artist{ID: "id-" + artist, Name: artist}}},
		Genres:           genres,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	sink := testsupport.MustOpenSink(t, cfg)

	duo := group("rg-duo", "Björk", "Duo", "1998")
	duo.ArtistCredit = append(duo.ArtistCredit, release.Credit{Name: "Guest"})
	live := group("rg-live", "Björk", "Live", "1998", release.Genre{Name: "pop", Count: 3})
	live.SecondaryTypes = []string{"Live"}

	groups := map[string]release.Group{
		"rg-homogenic": group("rg-homogenic", "Björk", "Homogenic", "1997-09-22",
			release.Genre{Name: "art pop", Count: 4}, release.Genre{Name: "electronic", Count: 9}),
		"rg-live":   live,
		"rg-duo":    duo,
		"rg-future": group("rg-future", "Björk", "Future", "2024-01", release.Genre{Name: "pop", Count: 1}),
		"rg-jazz":   group("rg-jazz", "Björk", "Gling-Gló", "1990", release.Genre{Name: "jazz", Count: 5}),
		"rg-illmatic": group("rg-illmatic", "Nas", "Illmatic", "1994",
			release.Genre{Name: "pop rock", Count: 5}, release.Genre{Name: "east coast hip hop", Count: 9}),
	}
	return &fixture{
		paths: cfg.Paths,
		metadata: &fakeMetadata{
			hits: map[string]musicbrainz.ArtistHit{
				"Björk": {ID: "id-Björk", Name: "Björk"},
				"Nas":   {ID: "id-Nas", Name: "Nas"},
			},
			groupIDs: map[string][]string{
				"id-Björk": {"rg-homogenic", "rg-live", "rg-duo", "rg-future", "rg-jazz"},
				"id-Nas":   {"rg-illmatic"},
			},
			groups: groups,
		},
		covers:  &fakeCovers{image: testsupport.PNG(t, 8, 6)},
		objects: &fakeObjects{objects: map[string][]byte{}},
		table:   &fakeTable{columns: []string{"id", "artist", "title", "year", "genre", "src", "embedding"}},
		sink:    sink,
	}
}

func (f *fixture) offsetPath() string { return f.paths.OffsetFile }

func (f *fixture) run(t *testing.T, ctx context.Context, artists []string) (harvest.Stats, error) {
	t.Helper()
	tracker, err := offset.Open(f.offsetPath(), logging.NewNop())
	if err != nil {
		t.Fatalf("offset.Open: %v", err)
	}
	defer tracker.Close()
	var off harvest.Offset = tracker
	if f.wrapOffset != nil {
		off = f.wrapOffset(tracker)
	}
	logger := f.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	h, err := harvest.New(harvest.Options{
		Genres:       []string{"rock", "pop", "r&b", "hip hop"},
		GenreLabels:  map[string]string{"hip hop": "hip-hop"},
		Cutoff:       "2023-12-31",
		CoverDir:     f.paths.CoverDir,
		CoverSize:    16,
		CoverQuality: 75,
		Table:        "albums",
	}, harvest.Deps{
		Metadata: f.metadata,
		Covers:   f.covers,
		Encoder:  fakeEncoder{},
		Objects:  f.objects,
		Table:    f.table,
		Sink:     f.sink,
		Offset:   off,
		Prompter: f.prompter,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("harvest.New: %v", err)
	}
	return h.Run(ctx, artists)
}

func TestRunFiltersAndPersists(t *testing.T) {
	f := newFixture(t)
	stats, err := f.run(t, context.Background(), []string{"Björk", "Nas"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !stats.Completed || stats.Artists != 2 || stats.ReleaseGroups != 6 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	wantSkipped := map[string]int{
		harvest.SkipNotAlbum:    1,
		harvest.SkipNotSolo:     1,
		harvest.SkipNotReleased: 1,
		harvest.SkipNoGenre:     1,
	}
	for reason, n := range wantSkipped {
		if stats.Skipped[reason] != n {
			t.Fatalf("skipped[%s] = %d, want %d", reason, stats.Skipped[reason], n)
		}
	}
	if stats.RowsInserted != 2 || stats.CSVAppended != 2 || stats.Uploads != 2 {
		t.Fatalf("unexpected persistence counters %+v", stats)
	}
	if !slices.Equal(f.covers.fetched, []string{"rg-homogenic", "rg-illmatic"}) {
		t.Fatalf("covers fetched for filtered groups: %v", f.covers.fetched)
	}

	first := f.table.rows[0]
	if got := strings.Join(first.Names(), ","); got != "artist,title,year,genre,src,embedding" {
		t.Fatalf("record order = %s", got)
	}
	for name, want := range map[string]string{
		"artist":    "Björk",
		"title":     "Homogenic",
		"year":      "1997",
		"genre":     "pop",
		"src":       "https://cdn.test/covers/bjork/homogenic.jpg",
		"embedding": "[0.5,-0.25]",
	} {
		if got, _ := first.Get(name); got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if genre, _ := f.table.rows[1].Get("genre"); genre != "hip-hop" {
		t.Fatalf("expected remapped genre, got %q", genre)
	}
	if _, err := os.Stat(filepath.Join(f.paths.CoverDir, "nas", "illmatic.jpg")); err != nil {
		t.Fatalf("cover not saved: %v", err)
	}
	if _, err := os.Stat(f.offsetPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("completed run must delete the offset file: %v", err)
	}
}

func TestRunResumesFromOffset(t *testing.T) {
	for k := 0; k <= 2; k++ {
		f := newFixture(t)
		if k > 0 {
			if err := os.WriteFile(f.offsetPath(), []byte{byte('0' + k)}, 0o644); err != nil {
				t.Fatal(err)
			}
		}
		artists := []string{"Björk", "Nas"}
		stats, err := f.run(t, context.Background(), artists)
		if err != nil {
			t.Fatalf("k=%d: Run: %v", k, err)
		}
		if !slices.Equal(f.metadata.searched, artists[k:]) {
			t.Fatalf("k=%d: searched %v", k, f.metadata.searched)
		}
		if stats.StartOffset != k || stats.Artists != len(artists)-k {
			t.Fatalf("k=%d: unexpected stats %+v", k, stats)
		}
		if len(f.table.rows) != stats.RowsInserted || (k == 2 && len(f.table.rows) != 0) {
			t.Fatalf("k=%d: skipped artists produced writes: %d rows", k, len(f.table.rows))
		}
	}
}

func TestRerunIsIdempotent(t *testing.T) {
	f := newFixture(t)
	artists := []string{"Björk", "Nas"}
	if _, err := f.run(t, context.Background(), artists); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := os.ReadFile(f.sink.Path())
	if err != nil {
		t.Fatal(err)
	}

	stats, err := f.run(t, context.Background(), artists)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.RowsInserted != 0 || stats.CSVAppended != 0 || stats.Uploads != 0 {
		t.Fatalf("rerun wrote duplicates: %+v", stats)
	}
	if stats.RowsExisting != 2 || stats.CSVExisting != 2 {
		t.Fatalf("rerun did not detect existing rows: %+v", stats)
	}
	after, err := os.ReadFile(f.sink.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatalf("csv changed on rerun:\n%s\n%s", before, after)
	}
}

func TestRunRejectsUnknownColumns(t *testing.T) {
	f := newFixture(t)
	f.table.columns = []string{"artist", "title", "year", "genre", "src"}
	_, err := f.run(t, context.Background(), []string{"Björk"})
	if !errors.Is(err, remote.ErrUnknownColumn) || !errors.Is(err, services.ErrSchema) {
		t.Fatalf("expected unknown column schema error, got %v", err)
	}
	if len(f.table.rows) != 0 {
		t.Fatal("rejected record was inserted")
	}
	if got, err := offset.Read(f.offsetPath()); err != nil || got != 0 {
		t.Fatalf("offset advanced after failure: %d %v", got, err)
	}
}

func TestRunStopsOnInterrupt(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.metadata.onList = func(artistID string) {
		if artistID == "id-Nas" {
			cancel()
		}
	}
	stats, err := f.run(t, ctx, []string{"Björk", "Nas"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if services.Classify(err) != "interrupted" {
		t.Fatalf("expected interrupted classification, got %q", services.Classify(err))
	}
	if stats.Completed {
		t.Fatal("interrupted run reported completion")
	}
	if got, err := offset.Read(f.offsetPath()); err != nil || got != 1 {
		t.Fatalf("offset = %d (%v), want 1", got, err)
	}
}

func TestRunFailsOnBadDate(t *testing.T) {
	f := newFixture(t)
	f.metadata.groups["rg-homogenic"] = group("rg-homogenic", "Björk", "Homogenic", "Sept 1997",
		release.Genre{Name: "pop", Count: 1})
	_, err := f.run(t, context.Background(), []string{"Björk"})
	if !errors.Is(err, release.ErrDateFormat) || !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected date format error, got %v", err)
	}
}

func TestRunRejectsOffsetBeyondList(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.offsetPath(), []byte("5"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.run(t, context.Background(), []string{"Björk"}); !errors.Is(err, harvest.ErrOffsetOutOfRange) {
		t.Fatalf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := harvest.New(harvest.Options{Genres: []string{"rock"}, Cutoff: "2023"}, harvest.Deps{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseArtists(t *testing.T) {
	got := harvest.ParseArtists([]byte("Björk\r\n\n  Nas  \r\nSigur Rós"))
	want := []string{"Björk", "Nas", "Sigur Rós"}
	if !slices.Equal(got, want) {
		t.Fatalf("ParseArtists = %v, want %v", got, want)
	}
}

func TestRunWarnsOnWeakArtistMatch(t *testing.T) {
	f := newFixture(t)
	f.metadata.hits["Bjork"] = musicbrainz.ArtistHit{ID: "id-Nas", Name: "Nas", Score: 41}
	var buf bytes.Buffer
	f.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	stats, err := f.run(t, context.Background(), []string{"Bjork"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !stats.Completed || stats.RowsInserted != 1 {
		t.Fatalf("expected the matched artist to be harvested, got %+v", stats)
	}
	out := buf.String()
	if !strings.Contains(out, `"event_type":"artist_weak_match"`) || !strings.Contains(out, `"match":"Nas"`) {
		t.Fatalf("expected weak match warning, got %s", out)
	}

	buf.Reset()
	f2 := newFixture(t)
	f2.metadata.hits["bjork"] = musicbrainz.ArtistHit{ID: "id-Björk", Name: "Björk"}
	f2.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if _, err := f2.run(t, context.Background(), []string{"bjork"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(buf.String(), "artist_weak_match") {
		t.Fatalf("folded names must not warn: %s", buf.String())
	}
}

func TestRunInterruptsOperatorPrompt(t *testing.T) {
	f := newFixture(t)
	f.metadata.groups["rg-homogenic"] = group("rg-homogenic", "Björk", "…", "1997", release.Genre{Name: "pop", Count: 1})
	f.metadata.groupIDs["id-Björk"] = []string{"rg-homogenic"}
	r, w := io.Pipe()
	defer w.Close()
	f.prompter = prompt.New(r, io.Discard, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		stats harvest.Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := f.run(t, ctx, []string{"Björk"})
		done <- result{stats, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.err, context.Canceled) || services.Classify(res.err) != "interrupted" {
			t.Fatalf("expected interrupted run, got %v", res.err)
		}
		if res.stats.Completed || res.stats.RowsInserted != 0 {
			t.Fatalf("interrupted run persisted work: %+v", res.stats)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run still waiting for operator input after interrupt")
	}
	if got, err := offset.Read(f.offsetPath()); err != nil || got != 0 {
		t.Fatalf("offset = %d (%v), want 0", got, err)
	}
}

// wrappedOffset aliases harvest.Offset so the embedded field name does not
// collide with the promoted Offset method.
type wrappedOffset = harvest.Offset

type failingFlush struct {
	wrappedOffset
	err error
}

func (f failingFlush) Flush() error { return f.err }

func TestRunLogsOffsetWriteFailure(t *testing.T) {
	f := newFixture(t)
	diskFull := errors.New("no space left on device")
	f.wrapOffset = func(o harvest.Offset) harvest.Offset { return failingFlush{wrappedOffset: o, err: diskFull} }
	var buf bytes.Buffer
	f.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	stats, err := f.run(t, context.Background(), []string{"Björk", "Nas"})
	if !errors.Is(err, diskFull) {
		t.Fatalf("expected flush error, got %v", err)
	}
	if stats.Completed || stats.Artists != 0 {
		t.Fatalf("run continued past a failed flush: %+v", stats)
	}
	out := buf.String()
	for _, want := range []string{`"msg":"harvest stopped"`, `"event_type":"harvest_failed"`, `"error_class":"permanent"`, "flush offset"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output:\n%s", want, out)
		}
	}
}

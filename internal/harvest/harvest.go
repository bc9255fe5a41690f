// Package harvest runs the artist loop: for each artist from the resume
// offset onward it lists release groups, filters them, stores the cover and
// its embedding, and persists the record to the remote table and the local
// CSV mirror.
//
// The offset advances once per fully processed artist, so a crash replays at
// most the artist in flight; both sinks check for existing rows before
// writing, which makes the replay harmless. Finishing the list tombstones the
// offset. Cancelling the context stops the run without flushing the artist in
// flight.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"coverharvest/internal/coverart"
	"coverharvest/internal/embedding"
	"coverharvest/internal/logging"
	"coverharvest/internal/musicbrainz"
	"coverharvest/internal/record"
	"coverharvest/internal/release"
	"coverharvest/internal/remote"
	"coverharvest/internal/services"
	"coverharvest/internal/textutil"
)

// ErrOffsetOutOfRange is returned when the stored offset lies beyond the end
// of the artist list.
var ErrOffsetOutOfRange = errors.New("offset is beyond the artist list")

// Metadata looks up artists and release groups.
type Metadata interface {
	SearchArtist(ctx context.Context, name string) (musicbrainz.ArtistHit, error)
	ReleaseGroupIDs(ctx context.Context, artistID string) ([]string, error)
	ReleaseGroup(ctx context.Context, id string) (release.Group, error)
}

// Covers fetches the raw front cover of a release group.
type Covers interface {
	Front(ctx context.Context, releaseGroupID string) ([]byte, error)
}

// Sink is the local record mirror.
type Sink interface {
	Exists(rec record.Record) (bool, error)
	Append(rec record.Record) error
}

// Offset is the resumption cursor.
type Offset interface {
	Offset() int
	Advance() error
	Flush() error
	Tombstone() error
}

// Options carries the run settings.
type Options struct {
	Genres       []string
	GenreLabels  map[string]string
	Cutoff       string
	CoverDir     string
	CoverSize    int
	CoverQuality int
	Table        string
}

// Deps are the collaborators of a run.
type Deps struct {
	Metadata Metadata
	Covers   Covers
	Encoder  embedding.Encoder
	Objects  remote.ObjectStore
	Table    remote.Table
	Sink     Sink
	Offset   Offset
	Prompter release.Prompter
	Logger   *slog.Logger
}

// Harvester executes runs.
type Harvester struct {
	opts Options
	deps Deps
	log  *slog.Logger
	now  func() time.Time
}

// New validates options and dependencies.
func New(opts Options, deps Deps) (*Harvester, error) {
	if deps.Metadata == nil || deps.Covers == nil || deps.Encoder == nil ||
		deps.Objects == nil || deps.Table == nil || deps.Sink == nil || deps.Offset == nil {
		return nil, services.Wrap(services.ErrConfiguration, "harvest", "new", "missing collaborator", nil)
	}
	if len(opts.Genres) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "harvest", "new", "genre allow-list is empty", nil)
	}
	if _, err := release.ParseDate(opts.Cutoff); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "harvest", "new", "invalid cutoff date", err)
	}
	if opts.CoverSize <= 0 {
		opts.CoverSize = coverart.DefaultSize
	}
	if opts.CoverQuality <= 0 {
		opts.CoverQuality = coverart.DefaultQuality
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Harvester{
		opts: opts,
		deps: deps,
		log:  logger.With(logging.String(logging.FieldComponent, "harvest")),
		now:  time.Now,
	}, nil
}

// Run processes artists from the stored offset to the end of the list. On
// cancellation it returns the context error and leaves the offset at the last
// completed artist.
func (h *Harvester) Run(ctx context.Context, artists []string) (Stats, error) {
	started := h.now()
	stats := newStats(uuid.NewString())
	stats.TotalArtists = len(artists)
	stats.StartOffset = h.deps.Offset.Offset()
	stats.EndOffset = stats.StartOffset
	defer func() { stats.Elapsed = h.now().Sub(started) }()

	ctx = services.WithRunID(ctx, stats.RunID)
	logger := logging.WithContext(ctx, h.log)

	if stats.StartOffset > len(artists) {
		return stats, fmt.Errorf("%w: offset %d, %d artists", ErrOffsetOutOfRange, stats.StartOffset, len(artists))
	}
	logger.Info("harvest started",
		logging.Int("offset", stats.StartOffset),
		logging.Int("artists", len(artists)),
	)

	var columns []string
	if stats.StartOffset < len(artists) {
		var err error
		columns, err = h.deps.Table.Columns(ctx)
		if err != nil {
			return stats, h.stop(ctx, logger, fmt.Errorf("list table columns: %w", err))
		}
	}

	for i := stats.StartOffset; i < len(artists); i++ {
		if err := ctx.Err(); err != nil {
			return stats, h.stop(ctx, logger, err)
		}
		artistCtx := services.WithArtist(ctx, i, artists[i])
		if err := h.processArtist(artistCtx, i, artists, columns, &stats); err != nil {
			return stats, h.stop(artistCtx, logger, err)
		}
		if err := h.deps.Offset.Advance(); err != nil {
			return stats, h.stop(artistCtx, logger, fmt.Errorf("advance offset: %w", err))
		}
		if err := h.deps.Offset.Flush(); err != nil {
			return stats, h.stop(artistCtx, logger, fmt.Errorf("flush offset: %w", err))
		}
		stats.Artists++
		stats.EndOffset = h.deps.Offset.Offset()
	}

	if err := h.deps.Offset.Tombstone(); err != nil {
		return stats, h.stop(ctx, logger, fmt.Errorf("tombstone offset: %w", err))
	}
	stats.Completed = true
	logger.Info("harvest complete",
		logging.Int("artists", stats.Artists),
		logging.Int("release_groups", stats.ReleaseGroups),
		logging.Int("persisted", stats.Persisted()),
	)
	return stats, nil
}

// stop logs why the loop ended early and hands back err. Cancellation is
// wrapped as services.ErrInterrupted around the context error.
func (h *Harvester) stop(ctx context.Context, logger *slog.Logger, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		logger.Info("harvest interrupted", logging.Int("offset", h.deps.Offset.Offset()))
		return services.Wrap(services.ErrInterrupted, "harvest", "run", "", ctxErr)
	}
	logging.WithContext(ctx, h.log).Error("harvest stopped",
		logging.Error(err),
		logging.String(logging.FieldEventType, "harvest_failed"),
		logging.String("error_class", services.Classify(err)),
		logging.String(logging.FieldErrorHint, "fix the cause and rerun; the run resumes at the logged offset"),
	)
	return err
}

func (h *Harvester) processArtist(ctx context.Context, index int, artists []string, columns []string, stats *Stats) error {
	name := artists[index]
	logger := logging.WithContext(ctx, h.log)
	logger.Info(fmt.Sprintf("%d/%d Processing artist: %s", index+1, len(artists), name))

	hit, err := h.deps.Metadata.SearchArtist(ctx, name)
	if err != nil {
		return fmt.Errorf("search artist %q: %w", name, err)
	}
	if textutil.Fold(hit.Name) != textutil.Fold(name) {
		logging.WarnWithContext(logger, "artist search returned a different name", "artist_weak_match",
			logging.String("match", hit.Name),
			logging.String("match_id", hit.ID),
			logging.Int("score", hit.Score),
			logging.String(logging.FieldImpact, "release groups of the matched artist are harvested"),
			logging.String(logging.FieldErrorHint, "edit the artist list if the match is wrong"),
		)
	}

	ids, err := h.deps.Metadata.ReleaseGroupIDs(ctx, hit.ID)
	if err != nil {
		return fmt.Errorf("list release groups of %q: %w", name, err)
	}
	logger.Debug("release groups listed", logging.Int("count", len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		groupCtx := services.WithReleaseGroup(ctx, id)
		if err := h.processReleaseGroup(groupCtx, id, columns, stats); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harvester) processReleaseGroup(ctx context.Context, id string, columns []string, stats *Stats) error {
	logger := logging.WithContext(ctx, h.log)
	group, err := h.deps.Metadata.ReleaseGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch release group %s: %w", id, err)
	}
	stats.ReleaseGroups++

	genre, reason, err := h.filter(group)
	if err != nil {
		return err
	}
	if reason != "" {
		stats.Skipped[reason]++
		logger.Debug("release group skipped",
			logging.Args(append(logging.DecisionAttrs("release_filter", "skip", reason),
				logging.String("title", group.Title))...)...)
		return nil
	}
	logger.Debug("release group accepted",
		logging.Args(append(logging.DecisionAttrs("release_filter", "accept", genre),
			logging.String("title", group.Title))...)...)

	rec := group.Record(h.label(genre))

	coverPath, err := group.CoverPath(ctx, h.opts.CoverDir, h.deps.Prompter)
	if err != nil {
		return fmt.Errorf("derive cover path: %w", err)
	}
	raw, err := h.deps.Covers.Front(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch cover of %s: %w", id, err)
	}
	cover, err := coverart.Normalize(raw, h.opts.CoverSize, h.opts.CoverQuality)
	if err != nil {
		return fmt.Errorf("normalize cover of %s: %w", id, err)
	}
	if err := coverart.Save(coverPath, cover); err != nil {
		return fmt.Errorf("save cover: %w", err)
	}
	stats.Covers++

	objectPath := remote.ObjectPath(coverPath)
	stored, err := h.deps.Objects.Exists(ctx, objectPath)
	if err != nil {
		return fmt.Errorf("check stored cover %s: %w", objectPath, err)
	}
	if !stored {
		if err := h.deps.Objects.Upload(ctx, objectPath, cover, "image/jpeg"); err != nil {
			return fmt.Errorf("upload cover %s: %w", objectPath, err)
		}
		stats.Uploads++
	}
	rec = rec.With(release.FieldSource, h.deps.Objects.PublicURL(objectPath))

	vec, err := h.deps.Encoder.Encode(ctx, cover)
	if err != nil {
		return fmt.Errorf("embed cover %s: %w", objectPath, err)
	}
	rec = rec.With(release.FieldEmbedding, embedding.Format(vec))

	if err := remote.ValidateColumns(rec, columns, h.opts.Table); err != nil {
		return services.Wrap(services.ErrSchema, "harvest", "validate columns", "", err)
	}
	src, _ := rec.Get(release.FieldSource)
	exists, err := h.deps.Table.RowExists(ctx, release.FieldSource, src)
	if err != nil {
		return fmt.Errorf("check remote row: %w", err)
	}
	if exists {
		stats.RowsExisting++
	} else {
		if err := h.deps.Table.Insert(ctx, rec); err != nil {
			return fmt.Errorf("insert remote row: %w", err)
		}
		stats.RowsInserted++
	}

	exists, err = h.deps.Sink.Exists(rec)
	if err != nil {
		return fmt.Errorf("check csv row: %w", err)
	}
	if exists {
		stats.CSVExisting++
	} else {
		if err := h.deps.Sink.Append(rec); err != nil {
			return fmt.Errorf("append csv row: %w", err)
		}
		stats.CSVAppended++
	}

	artist, _ := rec.Get(release.FieldArtist)
	logger.Info(fmt.Sprintf("Ending processing %s - %s", artist, group.Title))
	return nil
}

// filter applies the album, solo, release date and genre checks in order. It
// returns the resolved genre, or the reason the group was skipped.
func (h *Harvester) filter(group release.Group) (string, string, error) {
	if !group.IsAlbum() {
		return "", SkipNotAlbum, nil
	}
	if !group.IsSolo() {
		return "", SkipNotSolo, nil
	}
	released, err := group.IsReleasedBy(h.opts.Cutoff)
	if err != nil {
		return "", "", services.Wrap(services.ErrFormat, "harvest", "filter",
			fmt.Sprintf("release group %s", group.ID), err)
	}
	if !released {
		return "", SkipNotReleased, nil
	}
	genre := group.Genre(h.opts.Genres)
	if genre == "" {
		return "", SkipNoGenre, nil
	}
	return genre, "", nil
}

func (h *Harvester) label(genre string) string {
	if label, ok := h.opts.GenreLabels[genre]; ok && label != "" {
		return label
	}
	return genre
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/afero"

	"coverharvest/internal/config"
	"coverharvest/internal/coverart"
	"coverharvest/internal/csvsink"
	"coverharvest/internal/embedding"
	"coverharvest/internal/fetch"
	"coverharvest/internal/harvest"
	"coverharvest/internal/logging"
	"coverharvest/internal/musicbrainz"
	"coverharvest/internal/offset"
	"coverharvest/internal/release"
	"coverharvest/internal/remote"
	"coverharvest/internal/remote/localstore"
	"coverharvest/internal/remote/sqltable"
	"coverharvest/internal/remote/supabase"
)

// runtime holds the collaborators of one harvest run and what must be closed
// afterwards.
type runtime struct {
	harvester *harvest.Harvester
	tracker   *offset.Tracker
	closers   []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, prompter release.Prompter) (_ *runtime, err error) {
	if err := cfg.RequireRemote(); err != nil {
		return nil, err
	}
	rt := &runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	upstream := fetch.New(
		fetch.WithDoer(&http.Client{Timeout: cfg.RequestTimeout()}),
		fetch.WithUserAgent(cfg.MusicBrainz.UserAgent),
		fetch.WithMaxAttempts(cfg.MusicBrainz.MaxAttempts),
		fetch.WithBaseDelay(cfg.BackoffBase()),
		fetch.WithMinInterval(cfg.MinInterval()),
		fetch.WithLogger(logging.NewComponentLogger(logger, "fetch")),
	)
	metadata := musicbrainz.New(upstream, cfg.MusicBrainz.BaseURL)
	covers := coverart.NewFetcher(
		coverart.NewCAAClient(cfg.MusicBrainz.UserAgent, cfg.MusicBrainz.CoverArtURL),
		upstream,
		cfg.RequestTimeout(),
		logger,
	)

	encoder := embedding.NewHTTPEncoder(
		fetch.New(
			fetch.WithDoer(&http.Client{Timeout: cfg.EmbeddingTimeout()}),
			fetch.WithUserAgent(cfg.MusicBrainz.UserAgent),
			fetch.WithLogger(logging.NewComponentLogger(logger, "embedding")),
		),
		cfg.Embedding.Endpoint,
		cfg.Embedding.Model,
	)

	objects, table, err := buildRemote(ctx, cfg, logger, rt)
	if err != nil {
		return nil, err
	}

	sink, err := csvsink.Open(cfg.Paths.CSVFile)
	if err != nil {
		return nil, err
	}

	tracker, err := offset.Open(cfg.Paths.OffsetFile, logging.NewComponentLogger(logger, "offset"))
	if err != nil {
		return nil, err
	}
	rt.tracker = tracker
	rt.closers = append(rt.closers, tracker.Close)

	labels := make(map[string]string, len(cfg.Filter.Genres))
	for _, genre := range cfg.Filter.Genres {
		labels[genre] = cfg.GenreLabel(genre)
	}
	rt.harvester, err = harvest.New(harvest.Options{
		Genres:       cfg.Filter.Genres,
		GenreLabels:  labels,
		Cutoff:       cfg.Filter.ReleasedBy,
		CoverDir:     cfg.Paths.CoverDir,
		CoverSize:    cfg.Cover.Size,
		CoverQuality: cfg.Cover.Quality,
		Table:        cfg.Remote.Table,
	}, harvest.Deps{
		Metadata: metadata,
		Covers:   covers,
		Encoder:  encoder,
		Objects:  objects,
		Table:    table,
		Sink:     sink,
		Offset:   tracker,
		Prompter: prompter,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func buildRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger, rt *runtime) (remote.ObjectStore, remote.Table, error) {
	var project *supabase.Client
	if cfg.Remote.TableBackend == config.TableBackendSupabase || cfg.Remote.ObjectBackend == config.ObjectBackendSupabase {
		rest := fetch.New(
			fetch.WithDoer(&http.Client{Timeout: cfg.RequestTimeout()}),
			fetch.WithUserAgent(cfg.MusicBrainz.UserAgent),
			fetch.WithLogger(logging.NewComponentLogger(logger, "supabase")),
		)
		var err error
		project, err = supabase.New(rest, cfg.Remote.URL, cfg.Remote.Key)
		if err != nil {
			return nil, nil, err
		}
	}

	var table remote.Table
	switch cfg.Remote.TableBackend {
	case config.TableBackendSupabase:
		table = project.Table(cfg.Remote.Table)
	case config.TableBackendPostgres, config.TableBackendSQLite:
		sqlTable, err := sqltable.Open(cfg.Remote.TableBackend, cfg.Remote.DatabaseDSN, cfg.Remote.Table,
			logging.NewComponentLogger(logger, "sqltable"))
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, sqlTable.Close)
		if cfg.Remote.TableBackend == config.TableBackendSQLite {
			if err := sqlTable.Migrate(ctx); err != nil {
				return nil, nil, err
			}
		}
		table = sqlTable
	default:
		return nil, nil, fmt.Errorf("unsupported table backend %q", cfg.Remote.TableBackend)
	}

	var objects remote.ObjectStore
	switch cfg.Remote.ObjectBackend {
	case config.ObjectBackendSupabase:
		objects = project.Storage(cfg.Remote.Bucket)
	case config.ObjectBackendLocal:
		store, err := localstore.New(afero.NewOsFs(), cfg.Remote.LocalObjectsDir, cfg.Remote.LocalPublicURL)
		if err != nil {
			return nil, nil, err
		}
		objects = store
	default:
		return nil, nil, fmt.Errorf("unsupported object backend %q", cfg.Remote.ObjectBackend)
	}
	return objects, table, nil
}

package services

import "context"

type contextKey string

const (
	runIDKey          contextKey = "run_id"
	artistKey         contextKey = "artist"
	artistIndexKey    contextKey = "artist_index"
	releaseGroupIDKey contextKey = "release_group_id"
)

// WithRunID annotates context with the harvest run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithArtist annotates context with the artist name and its index in the
// artist list.
func WithArtist(ctx context.Context, index int, name string) context.Context {
	ctx = context.WithValue(ctx, artistIndexKey, index)
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, artistKey, name)
}

// ArtistFromContext returns the artist index and name if present.
func ArtistFromContext(ctx context.Context) (int, string, bool) {
	index, ok := ctx.Value(artistIndexKey).(int)
	if !ok {
		return 0, "", false
	}
	name, _ := ctx.Value(artistKey).(string)
	return index, name, true
}

// WithReleaseGroup annotates context with a MusicBrainz release group ID.
func WithReleaseGroup(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, releaseGroupIDKey, id)
}

// ReleaseGroupFromContext returns the release group ID if present.
func ReleaseGroupFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(releaseGroupIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

package logging

import (
	"context"
	"log/slog"

	"coverharvest/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one invocation of the harvest loop.
	FieldRunID = "run_id"
	// FieldArtist is the artist name as read from the artist list.
	FieldArtist = "artist"
	// FieldArtistIndex is the zero-based position of the artist in the list.
	FieldArtistIndex = "artist_index"
	// FieldReleaseGroupID is the MusicBrainz release group identifier.
	FieldReleaseGroupID = "release_group_id"
	// FieldEventType classifies warnings and notable events.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact states the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the filter that made a decision.
	FieldDecisionType = "decision_type"
	// FieldDecisionResult is the outcome of a filter decision.
	FieldDecisionResult = "decision_result"
	// FieldDecisionReason explains a filter decision.
	FieldDecisionReason = "decision_reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if index, name, ok := services.ArtistFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldArtistIndex, index), slog.String(FieldArtist, name))
	}
	if id, ok := services.ReleaseGroupFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldReleaseGroupID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}

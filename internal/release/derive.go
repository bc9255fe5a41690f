package release

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"coverharvest/internal/record"
	"coverharvest/internal/textutil"
)

// Output record field names.
const (
	FieldArtist    = "artist"
	FieldTitle     = "title"
	FieldYear      = "year"
	FieldGenre     = "genre"
	FieldSource    = "src"
	FieldEmbedding = "embedding"
)

// Prompter asks an operator for a replacement when a name cannot be formatted.
// label describes what is being asked for ("artist's name", "release title").
type Prompter interface {
	Prompt(ctx context.Context, label, original string) (string, error)
}

// ErrUnformattable is returned when a name cannot be formatted and no
// Prompter is available.
var ErrUnformattable = errors.New("name cannot be formatted")

// Genre returns the candidate from candidates that matches the most popular of
// the group's genre tags. A candidate matches a tag when the tag name contains
// it, case-insensitively. The first match wins ties. It returns "" when no tag
// matches any candidate.
func (g Group) Genre(candidates []string) string {
	best := ""
	bestCount := 0
	for _, tag := range g.Genres {
		name := strings.ToLower(tag.Name)
		for _, candidate := range candidates {
			if candidate == "" || !strings.Contains(name, strings.ToLower(candidate)) {
				continue
			}
			if tag.Count > bestCount {
				bestCount = tag.Count
				best = candidate
			}
		}
	}
	return best
}

// Record builds the base output record: artist, title, year and the display
// genre.
func (g Group) Record(genre string) record.Record {
	return record.New(
		record.Field{Name: FieldArtist, Value: g.ArtistName()},
		record.Field{Name: FieldTitle, Value: g.Title},
		record.Field{Name: FieldYear, Value: g.Year()},
		record.Field{Name: FieldGenre, Value: genre},
	)
}

// CoverPath returns <dir>/<artist>/<title>.jpg with both segments formatted by
// textutil. When a segment cannot be formatted, prompter is asked until it
// returns a usable replacement.
func (g Group) CoverPath(ctx context.Context, dir string, prompter Prompter) (string, error) {
	artist, err := segment(ctx, g.ArtistName(), g.ArtistDisambiguation(), "artist's name", prompter)
	if err != nil {
		return "", err
	}
	title, err := segment(ctx, g.Title, g.Disambiguation, "release title", prompter)
	if err != nil {
		return "", err
	}
	dir = strings.TrimRight(dir, "/")
	if dir == "" {
		dir = "."
	}
	return path.Join(dir, artist, title+".jpg"), nil
}

func segment(ctx context.Context, primary, alt, label string, prompter Prompter) (string, error) {
	if formatted := textutil.FormatWithFallback(primary, alt); formatted != "" {
		return formatted, nil
	}
	if prompter == nil {
		return "", fmt.Errorf("%w: %s %q", ErrUnformattable, label, primary)
	}
	for {
		answer, err := prompter.Prompt(ctx, label, primary)
		if err != nil {
			return "", fmt.Errorf("prompt for %s: %w", label, err)
		}
		if formatted := textutil.FormatWithFallback(answer, ""); formatted != "" {
			return formatted, nil
		}
	}
}

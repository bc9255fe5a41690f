package release

import (
	"strings"
)

// Group is a release group with the fields requested through
// `inc=artists+genres`.
type Group struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Disambiguation   string   `json:"disambiguation"`
	PrimaryType      string   `json:"primary-type"`
	SecondaryTypes   []string `json:"secondary-types"`
	FirstReleaseDate string   `json:"first-release-date"`
	ArtistCredit     []Credit `json:"artist-credit"`
	Genres           []Genre  `json:"genres"`
}

// Credit is one entry of a release group's artist credit.
type Credit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

// Artist is the artist referenced by a credit.
type Artist struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Disambiguation string `json:"disambiguation"`
}

// Genre is a community genre tag with its vote count.
type Genre struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ArtistName returns the credited name of the first performing entity.
func (g Group) ArtistName() string {
	if len(g.ArtistCredit) == 0 {
		return ""
	}
	return g.ArtistCredit[0].Name
}

// ArtistDisambiguation returns the disambiguation comment of the first credited
// artist.
func (g Group) ArtistDisambiguation() string {
	if len(g.ArtistCredit) == 0 {
		return ""
	}
	return g.ArtistCredit[0].Artist.Disambiguation
}

// IsAlbum reports whether the primary type is "album" and no secondary types
// (live, compilation, soundtrack, ...) are attached.
func (g Group) IsAlbum() bool {
	return strings.EqualFold(g.PrimaryType, "album") && len(g.SecondaryTypes) == 0
}

// IsSolo reports whether exactly one entity is credited.
func (g Group) IsSolo() bool {
	return len(g.ArtistCredit) == 1
}

// IsReleasedBy reports whether the first release date is on or before cutoff.
// A missing first release date is not an error and yields false.
func (g Group) IsReleasedBy(cutoff string) (bool, error) {
	limit, err := ParseDate(cutoff)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(g.FirstReleaseDate) == "" {
		return false, nil
	}
	released, err := ParseDate(g.FirstReleaseDate)
	if err != nil {
		return false, err
	}
	return !released.After(limit), nil
}

// Year returns the four character year prefix of the first release date.
func (g Group) Year() string {
	if len(g.FirstReleaseDate) < 4 {
		return g.FirstReleaseDate
	}
	return g.FirstReleaseDate[:4]
}

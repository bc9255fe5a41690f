package release_test

import (
	"errors"
	"testing"

	"coverharvest/internal/release"
)

func TestIsAlbum(t *testing.T) {
	tests := []struct {
		name  string
		group release.Group
		want  bool
	}{
		{"album", release.Group{PrimaryType: "Album"}, true},
		{"lowercase", release.Group{PrimaryType: "album"}, true},
		{"live album", release.Group{PrimaryType: "Album", SecondaryTypes: []string{"Live"}}, false},
		{"single", release.Group{PrimaryType: "Single"}, false},
		{"missing", release.Group{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.group.IsAlbum(); got != tt.want {
				t.Fatalf("IsAlbum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSolo(t *testing.T) {
	one := release.Group{ArtistCredit: []release.Credit{{Name: "Björk"}}}
	if !one.IsSolo() {
		t.Fatal("expected single credit to be solo")
	}
	two := release.Group{ArtistCredit: []release.Credit{{Name: "Jay-Z", JoinPhrase: " & "}, {Name: "Kanye West"}}}
	if two.IsSolo() {
		t.Fatal("expected collaboration not to be solo")
	}
	if (release.Group{}).IsSolo() {
		t.Fatal("expected empty credit not to be solo")
	}
}

func TestIsReleasedByBoundaries(t *testing.T) {
	const cutoff = "2023-12-31"
	tests := []struct {
		date string
		want bool
	}{
		{"2023", true},
		{"2023-12", true},
		{"2023-12-31", true},
		{"2024-01-01", false},
		{"2024-01", false},
		{"2024", false},
		{"1969-08-15", true},
		{"", false},
	}
	for _, tt := range tests {
		got, err := release.Group{FirstReleaseDate: tt.date}.IsReleasedBy(cutoff)
		if err != nil {
			t.Fatalf("IsReleasedBy(%q) error: %v", tt.date, err)
		}
		if got != tt.want {
			t.Fatalf("IsReleasedBy(%q) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestIsReleasedByRejectsBadDates(t *testing.T) {
	if _, err := (release.Group{FirstReleaseDate: "15/08/1969"}).IsReleasedBy("2023-12-31"); !errors.Is(err, release.ErrDateFormat) {
		t.Fatalf("expected ErrDateFormat for release date, got %v", err)
	}
	if _, err := (release.Group{FirstReleaseDate: "2000"}).IsReleasedBy("end of 2023"); !errors.Is(err, release.ErrDateFormat) {
		t.Fatalf("expected ErrDateFormat for cutoff, got %v", err)
	}
}

func TestParseDateRequiresZeroPadding(t *testing.T) {
	for _, value := range []string{"2023-1", "2023-01-5", "2023-1-05"} {
		if _, err := release.ParseDate(value); !errors.Is(err, release.ErrDateFormat) {
			t.Errorf("ParseDate(%q): expected ErrDateFormat, got %v", value, err)
		}
	}
	got, err := release.ParseDate("2023-01")
	if err != nil || got.Month() != 1 || got.Day() != 1 {
		t.Fatalf("ParseDate(2023-01) = %v, %v", got, err)
	}
}

func TestArtistAccessors(t *testing.T) {
	g := release.Group{ArtistCredit: []release.Credit{{
		Name:   "!!!",
		Artist: release.Artist{ID: "f26c72d3", Name: "!!!", Disambiguation: "US dance-punk band"},
	}}}
	if g.ArtistName() != "!!!" {
		t.Fatalf("ArtistName() = %q", g.ArtistName())
	}
	if g.ArtistDisambiguation() != "US dance-punk band" {
		t.Fatalf("ArtistDisambiguation() = %q", g.ArtistDisambiguation())
	}
	var empty release.Group
	if empty.ArtistName() != "" || empty.ArtistDisambiguation() != "" {
		t.Fatal("expected empty accessors for group without credits")
	}
}

package remote_test

import (
	"errors"
	"testing"

	"coverharvest/internal/record"
	"coverharvest/internal/remote"
)

func TestValidateColumns(t *testing.T) {
	rec := record.New(
		record.Field{Name: "artist", Value: "Björk"},
		record.Field{Name: "title", Value: "Homogenic"},
	)
	if err := remote.ValidateColumns(rec, []string{"id", "title", "artist", "embedding"}, "albums"); err != nil {
		t.Fatalf("ValidateColumns: %v", err)
	}
	withExtra := rec.With("mood", "cold")
	if err := remote.ValidateColumns(withExtra, []string{"artist", "title"}, "albums"); !errors.Is(err, remote.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestObjectPath(t *testing.T) {
	tests := map[string]string{
		"/srv/data/covers/bjork/homogenic.jpg": "bjork/homogenic.jpg",
		"data/covers/kino/gruppa-krovi.jpg":    "kino/gruppa-krovi.jpg",
		"cover.jpg":                            "cover.jpg",
		`C:\covers\radiohead\ok-computer.jpg`:  "radiohead/ok-computer.jpg",
	}
	for in, want := range tests {
		if got := remote.ObjectPath(in); got != want {
			t.Fatalf("ObjectPath(%q) = %q, want %q", in, got, want)
		}
	}
}

package textutil

import "testing"

func TestFormatName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pink Floyd", "pink-floyd"},
		{"  The   Dark Side of the Moon  ", "the-dark-side-of-the-moon"},
		{"AC/DC", "acdc"},
		{"Guns N' Roses", "guns-n-roses"},
		{"Sigur Rós", "sigur-ros"},
		{"Björk", "bjork"},
		{"Кино", "kino"},
		{"What's Going On?", "whats-going-on"},
		{"snake_case_title", "snake_case_title"},
		{"! Leading", "leading"},
		{"?", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := FormatName(tc.in); got != tc.want {
			t.Fatalf("FormatName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatNameTransliteratesCJK(t *testing.T) {
	got := FormatName("北京")
	if got != "bei-jing" {
		t.Fatalf("FormatName(北京) = %q, want %q", got, "bei-jing")
	}
}

func TestFormatWithFallback(t *testing.T) {
	cases := []struct {
		name, primary, alt, want string
	}{
		{"primary wins", "Madonna", "US pop singer", "madonna"},
		{"disambiguation", "!!!", "US dance-punk band", "us-dancepunk-band"},
		{"spelled primary", "?", "", "question-mark"},
		{"spelled alt", "", "&", "ampersand"},
		{"spelled sequence", "?!", "", "question-mark-exclamation-mark"},
		{"nothing usable", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatWithFallback(tc.primary, tc.alt); got != tc.want {
				t.Fatalf("FormatWithFallback(%q, %q) = %q, want %q", tc.primary, tc.alt, got, tc.want)
			}
		})
	}
}

func TestSpellSpecialChars(t *testing.T) {
	if got := SpellSpecialChars("a+b"); got != "a plus sign b" {
		t.Fatalf("unexpected spelling: %q", got)
	}
	if got := SpellSpecialChars(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestFold(t *testing.T) {
	if Fold("  Sigur   Rós ") != Fold("sigur ros") {
		t.Fatalf("expected accent and case folding: %q vs %q", Fold("  Sigur   Rós "), Fold("sigur ros"))
	}
	if Fold("Björk") == Fold("Bjork Gudmundsdottir") {
		t.Fatal("different names must not fold equal")
	}
}

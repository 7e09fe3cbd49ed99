package organizer_test

import (
	"testing"

	"tvshows/internal/organizer"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "dotted episode", in: "Belle.S01E02.720p.HDTV.x264.srt", want: "Belle 01 02"},
		{name: "dotted episode lowercase", in: "/tv/belle.s01e02.hdtv", want: "/tv/belle 01 02"},
		{name: "dotted title", in: "The.Good.Place.S03E10.WEB.srt", want: "The Good Place 03 10"},
		{name: "cross episode", in: "Sandy 1x02 - Pilot.srt", want: "Sandy 1 02"},
		{name: "year removed", in: "Doctor Who (2005) Extras", want: "Doctor Who Extras"},
		{name: "punctuation", in: "It's-Always.Sunny", want: "It s Always Sunny"},
		{name: "whitespace collapsed", in: "  Some   Show\tName  ", want: "Some Show Name"},
		{name: "parentheses", in: "Show (US) Special", want: "Show US Special"},
		{name: "decomposed accents composed", in: "Cafe\u0301 Society", want: "Caf\u00e9 Society"},
		{name: "empty", in: "", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := organizer.NormalizeQuery(tc.in); got != tc.want {
				t.Fatalf("NormalizeQuery(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeQueryIdempotentWithoutEpisodeMarkers(t *testing.T) {
	inputs := []string{
		"/home/user/TV/Grey's Anatomy",
		"Show (2019) - Special.Edition",
		"plain words",
		"a.b-c'd(e)f",
	}
	for _, in := range inputs {
		once := organizer.NormalizeQuery(in)
		twice := organizer.NormalizeQuery(once)
		if once != twice {
			t.Fatalf("normalization not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeFilePath(t *testing.T) {
	tests := map[string]string{
		"/tv/show/ep.mp4.part": "/tv/show/ep.mp4",
		"/tv/show/ep.MKV.PART": "/tv/show/ep.MKV",
		"/tv/show/ep.mkv":      "/tv/show/ep.mkv",
		"/tv/show/ep.partial":  "/tv/show/ep.partial",
	}
	for in, want := range tests {
		if got := organizer.NormalizeFilePath(in); got != want {
			t.Fatalf("NormalizeFilePath(%q) = %q, want %q", in, got, want)
		}
	}
}

package organizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// partialSuffix marks a video that is still being downloaded.
const partialSuffix = ".part"

var (
	dottedEpisodePattern = regexp.MustCompile(`(?i)^(.+?)\.S(\d+)E(\d+).*$`)
	crossEpisodePattern  = regexp.MustCompile(`(?i)^(.+?)\s(\d+)x(\d+).*$`)
	yearPattern          = regexp.MustCompile(`\(\d{4}\)`)
	whitespacePattern    = regexp.MustCompile(`\s+`)

	punctuationReplacer = strings.NewReplacer(
		"'", " ",
		"-", " ",
		".", " ",
		"(", " ",
		")", " ",
	)
)

// NormalizeQuery reduces a raw path to the query string used for matching.
// Season/episode markers such as "Show.S01E02.720p" or "Show 1x02 Title"
// collapse to "Show 01 02", release years are dropped, and punctuation and
// whitespace runs become single spaces.
func NormalizeQuery(rawPath string) string {
	q := norm.NFC.String(rawPath)
	q = dottedEpisodePattern.ReplaceAllString(q, "${1} ${2} ${3}")
	q = crossEpisodePattern.ReplaceAllString(q, "${1} ${2} ${3}")
	q = yearPattern.ReplaceAllString(q, " ")
	q = punctuationReplacer.Replace(q)
	q = whitespacePattern.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

// NormalizeFilePath strips the in-progress download marker from a video path.
func NormalizeFilePath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), partialSuffix) {
		return path[:len(path)-len(partialSuffix)]
	}
	return path
}

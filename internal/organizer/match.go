package organizer

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	basePoint      = 1.0
	runBonus       = 1.0
	wordStartBonus = 2.0
	exactBonus     = 10.0
)

// Match pairs each subtitle with its best scoring video. The highest score
// wins, ties go to the earliest video, and subtitles scoring zero against every
// video are dropped. Several subtitles may pair with the same video.
func Match(videos, subtitles []MediaFile) []MatchedPair {
	pairs := make([]MatchedPair, 0, len(subtitles))
	for _, subtitle := range subtitles {
		best := -1
		bestScore := 0.0
		for i, video := range videos {
			score := Score(video.Query, subtitle.Query)
			if score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			continue
		}
		video := videos[best]
		pairs = append(pairs, MatchedPair{
			InputPath:  subtitle.FilePath,
			OutputPath: OutputPath(video, subtitle),
			VideoPath:  video.FilePath,
			Score:      bestScore,
		})
	}
	return pairs
}

// OutputPath names the subtitle after the video, beside the video.
func OutputPath(video, subtitle MediaFile) string {
	base := filepath.Base(video.FilePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(video.Directory, base+filepath.Ext(subtitle.FilePath))
}

// Score rates how well query fuzzily matches candidate. Spaces in query are
// ignored and comparison is case-insensitive. Every query character must
// appear in candidate in order, otherwise the score is 0. Matched characters
// earn more when they extend a contiguous run or start a word, and the total
// is divided by the candidate length so tighter candidates rank higher.
func Score(candidate, query string) float64 {
	q := []rune(strings.ToLower(strings.ReplaceAll(query, " ", "")))
	if len(q) == 0 {
		return 0
	}
	lowered := strings.ToLower(candidate)
	c := []rune(lowered)
	if len(q) > len(c) {
		return 0
	}

	total := 0.0
	run := 0
	last := -2
	pos := 0
	for _, r := range q {
		found := -1
		for ; pos < len(c); pos++ {
			if c[pos] == r {
				found = pos
				break
			}
		}
		if found < 0 {
			return 0
		}

		if found == last+1 {
			run++
		} else {
			run = 1
		}
		points := basePoint + runBonus*float64(run-1)
		if found == 0 || isWordSeparator(c[found-1]) {
			points += wordStartBonus
		}
		total += points

		last = found
		pos = found + 1
	}

	if strings.ReplaceAll(lowered, " ", "") == string(q) {
		total += exactBonus
	}
	return total / float64(utf8.RuneCountInString(lowered))
}

func isWordSeparator(r rune) bool {
	switch r {
	case ' ', '/', '\\', '_', '.', '-':
		return true
	default:
		return false
	}
}

// Package organizer reconciles subtitle files dropped into the shows directory
// with the episode videos stored beneath it.
//
// A run scans the shows directory, normalizes every path into a match query,
// fuzzy-scores each subtitle against the candidate videos, and relocates each
// matched subtitle beside its video under the video's base name. Relocation is
// two-phase: every copy must succeed before any original is deleted, so an
// interrupted or failed run never loses a subtitle.
package organizer

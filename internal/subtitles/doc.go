// Package subtitles inspects subtitle files produced by the organizer.
//
// DetectLanguage reads the dialogue out of an SRT file, skipping cue numbers,
// timings and formatting tags, and runs statistical language identification
// over it so reports can flag subtitles that are not in the configured
// language.
package subtitles

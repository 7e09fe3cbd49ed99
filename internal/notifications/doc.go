// Package notifications delivers tv-shows events via ntfy.
//
// The ntfy implementation posts to the topic URL configured under
// [notifications] and degrades to a no-op when no topic is set. Events cover
// the outcomes a user cares about after an unattended organize run: subtitles
// moved, deletes that failed, watched episodes removed from Plex, and errors.
package notifications

// Package plex links tv-shows with a Plex Media Server and manages its TV
// libraries.
//
// The TokenManager runs the plex.tv PIN device-link flow and persists the
// resulting authorization token, guarded by an advisory file lock so several
// commands can share it. LibraryClient uses that token to list show sections,
// trigger section refreshes after the organizer has moved subtitles, and prune
// episodes that have already been watched.
package plex

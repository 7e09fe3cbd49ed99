// Package main hosts the tv-shows CLI entrypoint and command graph.
//
// The Cobra command tree covers the organize workflow (move downloaded
// subtitles next to their videos, then refresh Plex and drop watched
// episodes), TVmaze schedule listings, Plex device linking, organize history,
// and configuration scaffolding. Configuration and logging are resolved once
// per process by the command context so subcommands only deal with output.
//
// Keep this package lean: behavior lives in the internal packages and is
// surfaced here through dedicated commands or flags.
package main

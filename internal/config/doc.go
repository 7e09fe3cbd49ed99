// Package config loads, normalizes, and validates tv-shows configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TVSHOWS_SHOWS_DIR and PLEX_URL. The Config type centralizes every knob the
// CLI needs, from the shows directory the organizer reconciles to the Plex and
// TVmaze endpoints.
//
// Load the configuration once per process and pass it explicitly to the
// components that need it.
package config

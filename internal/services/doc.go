// Package services defines shared utilities consumed by the organizer and the
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp a per-run correlation identifier for logging.
//   - Structured error markers plus the Wrap helper so the CLI can classify
//     failures and print a next step.
//
// Integrations live in subpackages (for example services/plex).
package services

// Package preflight provides readiness checks for the filesystem paths and
// external services tv-shows depends on.
//
// The CLI "tv-shows status" command runs them all; organize relies on the
// same directory check before touching any file. Checks for optional
// integrations are skipped when the integration is disabled in the config.
package preflight

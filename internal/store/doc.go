// Package store persists tv-shows state in a local SQLite database.
//
// Two kinds of records live here: the history of organize runs (one row per
// run plus one row per relocated subtitle) and raw TVmaze responses, which
// back the in-memory client cache across invocations. The database is a
// convenience record rather than a source of truth; deleting it only loses
// history and forces fresh TVmaze lookups. Schema changes bump schemaVersion
// in schema.go and users remove the database to adopt them.
package store

// Package repositories implements SQLite persistence for the session history.
//
// Progress and build records live in JSON files (see package state); the database only keeps an
// append-mostly log of search, build and retry invocations so the CLI can report history and
// quota spent per day.
//
// Key Implementations:
//   - [SessionRepository] : Session rows with per-playlist listing and quota totals
package repositories

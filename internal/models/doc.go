// Package models defines domain entities for converting Spotify playlists into YouTube playlists.
//
// The package contains three categories of types:
//
// 1. Boundary types shaped once at the service edge:
//   - [Track] : Spotify track with title, ordered artists and external URL
//   - [VideoCandidate] : YouTube search result
//
// 2. Persisted records, the sole source of truth across process restarts:
//   - [ProgressRecord] : search-phase results with a batch [Cursor] and quota [Usage]
//   - [BuildRecord] : build-phase outcome partitioned into added and [FailedAdd] entries
//
// 3. Database-backed history:
//   - [Session] : one search, build or retry run, implementing [Model]
//
// Record methods keep the counter invariants: processed equals len(results), found plus
// not-found equals processed, and the next batch starts where progress ends.
package models

// Package tasks orchestrates the resumable Spotify to YouTube conversion with real-time progress reporting.
//
// # Core Operations
//
// The [TransferEngine] interface defines the operations:
//
//  1. [TransferEngine.Search] : Match a batch of tracks
//     - Loads or creates the progress file for the playlist
//     - Searches the next min(batch, remaining) tracks with generated queries
//     - Checkpoints every few tracks so an interrupted session loses little work
//
//  2. [TransferEngine.Build] : Create the YouTube playlist
//     - Adds every matched video in playlist order
//     - Classifies failed additions instead of aborting
//
//  3. [TransferEngine.Retry] : Re-attempt failed additions of an existing build
//
//  4. [TransferEngine.Status] : Load what has been persisted so far
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [PlaylistEngine] implements [TransferEngine] with dependencies on:
//   - [services.TrackSource] : Spotify playlist reads
//   - [services.VideoSearcher] and [services.PlaylistWriter] : YouTube Data API
//   - [state.Store] : JSON progress and build files
package tasks

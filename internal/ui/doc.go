// Package ui implements an interactive terminal interface for search sessions using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [PlaylistListView] : Browse and filter Spotify playlists
//  2. [ConfirmView] : Show saved progress and confirm the next batch
//  3. [SearchView] : Monitor live progress with a progress bar and the latest matches
//  4. [ResultView] : Display the session summary
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during searches.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
//
// The package also exports lipgloss helpers ([Title], [Success], [Warn], [Error], [Muted]) used by the plain CLI output.
package ui

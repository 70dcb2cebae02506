package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgStatusLoaded
	MsgProgressUpdate
	MsgSearchComplete
)

type playlistsFetched struct {
	playlists []models.PlaylistRef
	err       error
}

type statusLoaded struct {
	playlist models.PlaylistRef
	progress *models.ProgressRecord
}

type searchComplete struct {
	result *tasks.SearchResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.PlaylistRef, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// statusLoadedMsg is the constructor for [MsgStatusLoaded]. progress is nil for a playlist
// that has never been searched.
func statusLoadedMsg(playlist models.PlaylistRef, progress *models.ProgressRecord) Msg {
	return Msg{kind: MsgStatusLoaded, data: statusLoaded{playlist, progress}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// searchCompleteMsg is the constructor for [MsgSearchComplete]
func searchCompleteMsg(result *tasks.SearchResult, err error) Msg {
	return Msg{kind: MsgSearchComplete, data: searchComplete{result, err}}
}

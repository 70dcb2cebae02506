package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sp2yt/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.PlaylistRef] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistRef
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks • %s", i.playlist.TotalTracks, i.playlist.ID)
}

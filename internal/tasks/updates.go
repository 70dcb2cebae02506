package tasks

import (
	"fmt"

	"github.com/desertthunder/sp2yt/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	LoadProgress
	SearchTracks
	Checkpoint
	CreatePlaylist
	AddVideos
	RetryFailed
	Complete
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case LoadProgress:
		return "load_progress"
	case SearchTracks:
		return "search_tracks"
	case Checkpoint:
		return "checkpoint"
	case CreatePlaylist:
		return "create_playlist"
	case AddVideos:
		return "add_videos"
	case RetryFailed:
		return "retry_failed"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingSourceUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", playlistID),
	}
}

func resumeUpdate(rec *models.ProgressRecord, resumed bool) ProgressUpdate {
	msg := fmt.Sprintf("Starting %s (%d tracks)", rec.Playlist.Name, rec.Playlist.TotalTracks)
	if resumed {
		msg = fmt.Sprintf("Resuming %s at track %d of %d", rec.Playlist.Name, rec.Cursor.NextStartIndex+1, rec.Playlist.TotalTracks)
	}
	return ProgressUpdate{
		Phase:   LoadProgress,
		Step:    rec.Cursor.ProcessedCount,
		Total:   rec.Playlist.TotalTracks,
		Message: msg,
		Data:    rec.Playlist,
	}
}

func searchTrackUpdate(step, total int, result models.MatchResult) ProgressUpdate {
	mark := "✗"
	if result.Found() {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, result.Track),
		Data:    result,
	}
}

func checkpointUpdate(rec *models.ProgressRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Checkpoint,
		Step:    rec.Cursor.ProcessedCount,
		Total:   rec.Playlist.TotalTracks,
		Message: fmt.Sprintf("Saved progress at %d/%d", rec.Cursor.ProcessedCount, rec.Playlist.TotalTracks),
	}
}

func createPlaylistUpdate(dest *models.DestinationRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", dest.Title, dest.ID),
		Data:    dest,
	}
}

func addVideoUpdate(phase Phase, step, total int, m models.MatchResult, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, m.Track)
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, m.Track, err)
	}
	return ProgressUpdate{Phase: phase, Step: step, Total: total, Message: msg, Data: m}
}

func completeUpdate(msg string, data any) ProgressUpdate {
	return ProgressUpdate{Phase: Complete, Step: 1, Total: 1, Message: msg, Data: data}
}

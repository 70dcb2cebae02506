// package models defines the data model for the playlist conversion service
package models

import (
	"fmt"
	"time"
)

// Quota costs charged per YouTube Data API call.
const (
	SearchQuotaCost   = 100
	CreateQuotaCost   = 50
	AddVideoQuotaCost = 50
)

// Model defines the base interface for persisted session models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Track is a Spotify track to be matched to a YouTube video.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"name"`
	Artists []string `json:"artists"`
	URL     string   `json:"external_url,omitempty"`
}

// PrimaryArtist returns the first credited artist, or an empty string.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// String renders the track as "Artist - Title".
func (t Track) String() string {
	if a := t.PrimaryArtist(); a != "" {
		return fmt.Sprintf("%s - %s", a, t.Title)
	}
	return t.Title
}

// VideoCandidate is a single YouTube search result.
type VideoCandidate struct {
	ID          string    `json:"video_id"`
	Title       string    `json:"title"`
	Channel     string    `json:"channel"`
	PublishedAt time.Time `json:"published_at"`
}

// URL returns the watch URL for the video.
func (v VideoCandidate) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// MatchResult is the outcome of one search attempt for one track.
type MatchResult struct {
	Track            Track           `json:"spotify_track"`
	Video            *VideoCandidate `json:"youtube_video"`
	Confidence       float64         `json:"confidence"`
	Timestamp        time.Time       `json:"timestamp"`
	QueriesAttempted []string        `json:"search_queries_tried"`
}

// Found reports whether a video was matched.
func (m MatchResult) Found() bool {
	return m.Video != nil
}

// PlaylistRef identifies the source playlist. Captured once per progress record.
type PlaylistRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalTracks int    `json:"total_tracks"`
	URL         string `json:"url"`
}

// DestinationRef identifies the YouTube playlist created by a build.
type DestinationRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ErrorKind classifies a failed playlist addition.
type ErrorKind string

const (
	VideoPrivateOrDeleted ErrorKind = "VIDEO_PRIVATE_OR_DELETED"
	VideoNotFound         ErrorKind = "VIDEO_NOT_FOUND"
	AddingDisabled        ErrorKind = "ADDING_DISABLED"
	QuotaExceeded         ErrorKind = "QUOTA_EXCEEDED"
	Forbidden             ErrorKind = "FORBIDDEN"
	BadRequest            ErrorKind = "BAD_REQUEST"
	NetworkError          ErrorKind = "NETWORK_ERROR"
	UnknownError          ErrorKind = "UNKNOWN"
)

// ErrorKinds lists the fixed add-failure taxonomy in display order.
var ErrorKinds = []ErrorKind{
	VideoPrivateOrDeleted, VideoNotFound, AddingDisabled, QuotaExceeded,
	Forbidden, BadRequest, NetworkError, UnknownError,
}

// Description returns a short human readable explanation of the kind.
func (k ErrorKind) Description() string {
	switch k {
	case VideoPrivateOrDeleted:
		return "video is private or deleted"
	case VideoNotFound:
		return "video not found"
	case AddingDisabled:
		return "owner disabled embedding or playlist additions"
	case QuotaExceeded:
		return "API quota exceeded"
	case Forbidden:
		return "forbidden"
	case BadRequest:
		return "bad request"
	case NetworkError:
		return "network error"
	default:
		return "unknown error"
	}
}

// FailedAdd is a match that could not be added to the destination playlist.
type FailedAdd struct {
	Match   MatchResult `json:"match_result"`
	Kind    ErrorKind   `json:"error_type"`
	Message string      `json:"error_message"`
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
)

// MockSource is a test double for [services.TrackSource]
type MockSource struct {
	Playlists []models.PlaylistRef
	Tracks    map[string][]models.Track
	Err       error
}

func (m *MockSource) GetPlaylists(ctx context.Context) ([]models.PlaylistRef, error) {
	return m.Playlists, m.Err
}

func (m *MockSource) GetPlaylist(ctx context.Context, playlistID string) (*models.PlaylistRef, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.Playlists {
		if p.ID == playlistID {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("playlist %s not found", playlistID)
}

func (m *MockSource) GetPlaylistTracks(ctx context.Context, playlistID string, max int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	tracks := m.Tracks[playlistID]
	return tracks[:min(max, len(tracks))], nil
}

// MockSearcher is a test double for [services.VideoSearcher]. It answers any query containing a
// track title with that title's video.
type MockSearcher struct {
	mu      sync.Mutex
	Videos  map[string]models.VideoCandidate
	Queries []string
}

func (m *MockSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]models.VideoCandidate, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()
	for title, v := range m.Videos {
		if strings.Contains(query, title) {
			return []models.VideoCandidate{v}, nil
		}
	}
	return nil, nil
}

// MockWriter is a test double for [services.PlaylistWriter]
type MockWriter struct {
	AddErrs map[string]error
	Added   []string
}

func (m *MockWriter) CreatePlaylist(ctx context.Context, title, description, privacy string) (*models.DestinationRef, error) {
	return &models.DestinationRef{ID: "yt-" + title, Title: title, URL: "https://www.youtube.com/playlist?list=yt"}, nil
}

func (m *MockWriter) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	if err := m.AddErrs[videoID]; err != nil {
		return err
	}
	m.Added = append(m.Added, videoID)
	return nil
}

// SampleTracks returns n tracks titled "Song i" by "Band i".
func SampleTracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range n {
		tracks[i] = models.Track{
			ID:      fmt.Sprintf("t%d", i+1),
			Title:   fmt.Sprintf("Song %d", i+1),
			Artists: []string{fmt.Sprintf("Band %d", i+1)},
		}
	}
	return tracks
}

// VideoFor returns a well-scoring video for track.
func VideoFor(track models.Track) models.VideoCandidate {
	return models.VideoCandidate{
		ID:      "v" + track.ID,
		Title:   track.PrimaryArtist() + " - " + track.Title + " (Official Video)",
		Channel: track.PrimaryArtist(),
	}
}

// SampleProgress builds a complete progress record for playlist "pl1" with n tracks. Tracks at the
// missing indexes have no video.
func SampleProgress(n int, missing ...int) *models.ProgressRecord {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := models.NewProgressRecord(models.PlaylistRef{ID: "pl1", Name: "Road Trip", TotalTracks: n, URL: "https://open.spotify.com/playlist/pl1"}, n, now)
	for i, tr := range SampleTracks(n) {
		r := models.MatchResult{Track: tr, QueriesAttempted: []string{tr.String()}, Timestamp: now}
		skip := false
		for _, m := range missing {
			skip = skip || m == i
		}
		if !skip {
			v := VideoFor(tr)
			r.Video = &v
			r.Confidence = 0.85
		}
		rec.RecordOutcome(r, models.SearchQuotaCost)
	}
	rec.Checkpoint(now)
	return rec
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

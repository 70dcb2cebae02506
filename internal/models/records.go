package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvariant is returned by Validate when a record's counters disagree with its contents.
var ErrInvariant = errors.New("record invariant violated")

// Cursor tracks batch position and outcome counters.
type Cursor struct {
	ProcessedCount int       `json:"processed_count"`
	FoundCount     int       `json:"found_count"`
	NotFoundCount  int       `json:"not_found_count"`
	LastUpdated    time.Time `json:"last_updated"`
	BatchSize      int       `json:"batch_size"`
	NextStartIndex int       `json:"next_batch_start"`
}

// Usage accumulates quota spent across search sessions. Quota is billed per query issued while
// SearchCount counts resolved tracks, so one track can cost several searches' worth of quota.
type Usage struct {
	TotalQuotaUnitsUsed int       `json:"total_quota_used"`
	SearchCount         int       `json:"searches_performed"` // tracks resolved
	SessionStartTime    time.Time `json:"session_start_time"`
	LastSessionTime     time.Time `json:"last_session_time"`
}

// ProgressRecord is the persisted state of the search phase for one playlist.
//
// Results is append-only and index-aligned with the playlist's track order.
type ProgressRecord struct {
	Playlist PlaylistRef   `json:"playlist_info"`
	Results  []MatchResult `json:"results"`
	Cursor   Cursor        `json:"progress"`
	Usage    Usage         `json:"quota_usage"`
}

// NewProgressRecord returns a zeroed record for ref.
func NewProgressRecord(ref PlaylistRef, batchSize int, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		Playlist: ref,
		Results:  []MatchResult{},
		Cursor:   Cursor{BatchSize: batchSize, LastUpdated: now},
		Usage:    Usage{SessionStartTime: now, LastSessionTime: now},
	}
}

// RecordOutcome appends result and updates counters and quota usage.
func (p *ProgressRecord) RecordOutcome(result MatchResult, quotaCost int) {
	p.Results = append(p.Results, result)
	p.Cursor.ProcessedCount++
	if result.Found() {
		p.Cursor.FoundCount++
	} else {
		p.Cursor.NotFoundCount++
	}
	p.Usage.SearchCount++
	p.Usage.TotalQuotaUnitsUsed += quotaCost
}

// StartSession stamps the session time and batch size for a new invocation.
func (p *ProgressRecord) StartSession(batchSize int, now time.Time) {
	p.Cursor.BatchSize = batchSize
	p.Usage.LastSessionTime = now
	if p.Usage.SessionStartTime.IsZero() {
		p.Usage.SessionStartTime = now
	}
}

// Checkpoint aligns the batch cursor with progress and stamps the update time.
func (p *ProgressRecord) Checkpoint(now time.Time) {
	p.Cursor.NextStartIndex = p.Cursor.ProcessedCount
	p.Cursor.LastUpdated = now
}

// IsComplete reports whether every track of the playlist has a result.
func (p *ProgressRecord) IsComplete() bool {
	return p.Cursor.ProcessedCount >= p.Playlist.TotalTracks
}

// Remaining returns how many tracks still need a search.
func (p *ProgressRecord) Remaining() int {
	return max(p.Playlist.TotalTracks-p.Cursor.ProcessedCount, 0)
}

// NextBatch returns the half-open track index range for the next session.
func (p *ProgressRecord) NextBatch(requested int) (start, end int) {
	start = p.Cursor.NextStartIndex
	n := min(p.Remaining(), max(requested, 0))
	return start, start + n
}

// Matched returns the results that have a video.
func (p *ProgressRecord) Matched() []MatchResult {
	matched := make([]MatchResult, 0, p.Cursor.FoundCount)
	for _, r := range p.Results {
		if r.Found() {
			matched = append(matched, r)
		}
	}
	return matched
}

// Validate checks the counter invariants.
func (p *ProgressRecord) Validate() error {
	if p.Playlist.ID == "" {
		return fmt.Errorf("%w: missing playlist id", ErrInvariant)
	}
	c := p.Cursor
	if c.ProcessedCount != len(p.Results) {
		return fmt.Errorf("%w: processed %d != results %d", ErrInvariant, c.ProcessedCount, len(p.Results))
	}
	if c.FoundCount+c.NotFoundCount != c.ProcessedCount {
		return fmt.Errorf("%w: found %d + not found %d != processed %d", ErrInvariant, c.FoundCount, c.NotFoundCount, c.ProcessedCount)
	}
	found := 0
	for _, r := range p.Results {
		if r.Found() {
			found++
		}
	}
	if found != c.FoundCount {
		return fmt.Errorf("%w: found count %d != matched results %d", ErrInvariant, c.FoundCount, found)
	}
	return nil
}

// BuildStats summarizes a build or retry run.
type BuildStats struct {
	QuotaUnitsUsed    int               `json:"quota_used"`
	CompletionTime    time.Time         `json:"completion_time"`
	SuccessRate       float64           `json:"success_rate"`
	FailureKindCounts map[ErrorKind]int `json:"error_summary"`
}

// BuildRecord is the persisted result of adding matched videos to a playlist.
type BuildRecord struct {
	Destination DestinationRef `json:"youtube_playlist"`
	Added       []MatchResult  `json:"added_tracks"`
	Failed      []FailedAdd    `json:"failed_tracks"`
	Stats       BuildStats     `json:"stats"`
}

// RecomputeStats derives the success rate and failure counts from Added and Failed.
func (b *BuildRecord) RecomputeStats(now time.Time) {
	counts := make(map[ErrorKind]int)
	for _, f := range b.Failed {
		counts[f.Kind]++
	}
	b.Stats.FailureKindCounts = counts
	b.Stats.CompletionTime = now

	total := len(b.Added) + len(b.Failed)
	if total == 0 {
		b.Stats.SuccessRate = 0
		return
	}
	b.Stats.SuccessRate = float64(len(b.Added)) / float64(total)
}

// Validate checks that every found result of progress appears exactly once across Added and Failed.
func (b *BuildRecord) Validate(progress *ProgressRecord) error {
	want := make(map[string]int)
	for _, r := range progress.Matched() {
		want[matchKey(r)]++
	}

	got := make(map[string]int)
	for _, r := range b.Added {
		got[matchKey(r)]++
	}
	for _, f := range b.Failed {
		got[matchKey(f.Match)]++
	}

	if len(got) != len(want) {
		return fmt.Errorf("%w: build covers %d matches, progress has %d", ErrInvariant, len(got), len(want))
	}
	for k, n := range want {
		if got[k] != n {
			return fmt.Errorf("%w: match %s appears %d times, want %d", ErrInvariant, k, got[k], n)
		}
	}
	return nil
}

func matchKey(m MatchResult) string {
	videoID := ""
	if m.Video != nil {
		videoID = m.Video.ID
	}
	return m.Track.ID + "|" + videoID
}

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/services"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/state"
)

// notAttempted is the message recorded for matches an interrupted build never reached.
const notAttempted = "not attempted: build interrupted"

// SearchResult summarizes one search session.
type SearchResult struct {
	Playlist  models.PlaylistRef // Source playlist
	Resumed   bool               // A progress file existed before this session
	Start     int                // First track index searched this session
	End       int                // One past the last track index searched
	Found     int                // Matches found this session
	NotFound  int                // Tracks without a match this session
	QuotaUsed int                // Search quota spent this session
	Progress  *models.ProgressRecord
}

// Processed returns how many tracks this session searched.
func (r *SearchResult) Processed() int { return r.Found + r.NotFound }

// Complete reports whether every track of the playlist now has a result.
func (r *SearchResult) Complete() bool { return r.Progress.IsComplete() }

// BuildOptions customize the destination playlist.
type BuildOptions struct {
	Title       string // Defaults to the source playlist name
	Description string // Defaults to a note linking the source playlist
	Privacy     string // private, unlisted or public
}

// BuildResult summarizes a build or retry run.
type BuildResult struct {
	Attempted int // Additions tried in this run
	Added     int // Additions that succeeded in this run
	Failed    int // Additions that failed in this run
	QuotaUsed int // Quota spent in this run
	Record    *models.BuildRecord
	Progress  *models.ProgressRecord
}

// StatusResult reports what is persisted for a playlist.
type StatusResult struct {
	Progress *models.ProgressRecord // nil when no search has run
	Build    *models.BuildRecord    // nil when no build has run
}

// TransferEngine defines the resumable search, build and retry operations.
type TransferEngine interface {
	// Search resumes or starts matching tracks of a playlist and processes at most batch tracks.
	Search(ctx context.Context, playlistID string, batch int, progress chan<- ProgressUpdate) (*SearchResult, error)

	// Build creates the destination playlist and adds every matched video.
	Build(ctx context.Context, playlistID string, opts BuildOptions, progress chan<- ProgressUpdate) (*BuildResult, error)

	// Retry re-attempts the failed additions of a previous build.
	Retry(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*BuildResult, error)

	// Status loads the persisted records for a playlist.
	Status(playlistID string) (*StatusResult, error)
}

// EngineConfig holds tunables for [PlaylistEngine].
type EngineConfig struct {
	CheckpointEvery int   // Save progress after this many tracks
	MaxResults      int   // Candidates requested per query
	SearchPacer     Pacer // Wait before every search after the first
	AddPacer        Pacer // Wait before every playlist addition after the first
}

// PlaylistEngine implements TransferEngine on top of a track source, a video searcher, a playlist
// writer and a state store.
type PlaylistEngine struct {
	source   services.TrackSource
	searcher services.VideoSearcher
	writer   services.PlaylistWriter
	store    *state.Store
	cfg      EngineConfig
	logger   *log.Logger
	now      func() time.Time
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided services.
func NewPlaylistEngine(source services.TrackSource, searcher services.VideoSearcher, writer services.PlaylistWriter, store *state.Store, cfg EngineConfig, logger *log.Logger) *PlaylistEngine {
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 5
	}
	if cfg.SearchPacer == nil {
		cfg.SearchPacer = NoDelay
	}
	if cfg.AddPacer == nil {
		cfg.AddPacer = NoDelay
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{
		source:   source,
		searcher: searcher,
		writer:   writer,
		store:    store,
		cfg:      cfg,
		logger:   logger.With("component", "engine"),
		now:      time.Now,
	}
}

// Search loads the progress record for playlistID (creating one from the source playlist's metadata
// when absent), then searches the next min(batch, remaining) tracks. Progress is saved every
// CheckpointEvery tracks and at the end of the session.
//
// Cancelling ctx stops after the current track. Completed tracks are checkpointed and ctx.Err() is
// returned alongside the partial result.
func (e *PlaylistEngine) Search(ctx context.Context, playlistID string, batch int, progress chan<- ProgressUpdate) (*SearchResult, error) {
	if e.source == nil || e.searcher == nil {
		return nil, fmt.Errorf("%w: search services not initialized", shared.ErrServiceUnavailable)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", shared.ErrInvalidArgument, batch)
	}

	rec, resumed, err := e.store.LoadProgress(playlistID)
	if err != nil {
		return nil, err
	}
	if !resumed {
		sendProgress(progress, fetchingSourceUpdate(playlistID))
		ref, err := e.source.GetPlaylist(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
		}
		rec = models.NewProgressRecord(*ref, batch, e.now())
	}

	rec.StartSession(batch, e.now())
	result := &SearchResult{Playlist: rec.Playlist, Resumed: resumed, Progress: rec}
	sendProgress(progress, resumeUpdate(rec, resumed))

	if rec.IsComplete() {
		e.logger.Info("search already complete", "playlist", playlistID, "processed", rec.Cursor.ProcessedCount)
		sendProgress(progress, completeUpdate("All tracks already searched", result))
		return result, nil
	}

	start, end := rec.NextBatch(batch)
	result.Start, result.End = start, start

	tracks, err := e.source.GetPlaylistTracks(ctx, playlistID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks for %s: %w", playlistID, err)
	}
	if len(tracks) < end {
		e.logger.Warn("playlist shorter than recorded", "playlist", playlistID, "fetched", len(tracks), "expected", end)
		end = max(len(tracks), start)
	}

	resolver := NewResolver(e.searcher, e.cfg.SearchPacer, e.cfg.MaxResults, e.logger)
	resolver.now = e.now
	logger := shared.WithLogger(e.logger, "playlist", playlistID)

	for i := start; i < end; i++ {
		if i > start {
			if err := e.cfg.SearchPacer.Wait(ctx); err != nil {
				return result, e.interruptSearch(rec, err)
			}
		}

		track := tracks[i]
		var match models.MatchResult
		if track.Title == "" {
			// unavailable track or podcast episode; keep its slot without spending quota
			match = models.MatchResult{Track: track, QueriesAttempted: []string{}, Timestamp: e.now()}
		} else {
			match = resolver.Resolve(ctx, track)
			if ctx.Err() != nil {
				// the track is dropped but the queries it issued were still billed
				spent := len(match.QueriesAttempted) * models.SearchQuotaCost
				rec.Usage.TotalQuotaUnitsUsed += spent
				result.QuotaUsed += spent
				return result, e.interruptSearch(rec, ctx.Err())
			}
		}

		cost := len(match.QueriesAttempted) * models.SearchQuotaCost
		rec.RecordOutcome(match, cost)
		result.End = i + 1
		result.QuotaUsed += cost
		if match.Found() {
			result.Found++
		} else {
			result.NotFound++
			logger.Info("no match", "track", track.String(), "queries", len(match.QueriesAttempted))
		}
		sendProgress(progress, searchTrackUpdate(i+1, rec.Playlist.TotalTracks, match))

		if result.Processed()%e.cfg.CheckpointEvery == 0 && i+1 < end {
			if err := e.store.SaveProgress(rec); err != nil {
				return result, fmt.Errorf("failed to checkpoint progress: %w", err)
			}
			sendProgress(progress, checkpointUpdate(rec))
		}
	}

	if err := e.store.SaveProgress(rec); err != nil {
		return result, fmt.Errorf("failed to save progress: %w", err)
	}
	sendProgress(progress, checkpointUpdate(rec))

	logger.Info("search session finished",
		"searched", result.Processed(), "found", result.Found, "quota", result.QuotaUsed,
		"processed", rec.Cursor.ProcessedCount, "total", rec.Playlist.TotalTracks)
	sendProgress(progress, completeUpdate(
		fmt.Sprintf("Searched %d tracks (%d found), %d remaining", result.Processed(), result.Found, rec.Remaining()),
		result,
	))
	return result, nil
}

func (e *PlaylistEngine) interruptSearch(rec *models.ProgressRecord, cause error) error {
	if err := e.store.SaveProgress(rec); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to checkpoint progress: %w", err))
	}
	e.logger.Warn("search interrupted", "playlist", rec.Playlist.ID, "processed", rec.Cursor.ProcessedCount)
	return cause
}

// Build creates a destination playlist and adds every matched video of the progress record in
// result order. Individual failures are classified and recorded without aborting.
//
// Build refuses to run when a build file already exists; use Retry to resume one. When ctx ends
// mid-build, unreached matches are recorded as failed so Retry picks them up.
func (e *PlaylistEngine) Build(ctx context.Context, playlistID string, opts BuildOptions, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if e.writer == nil {
		return nil, fmt.Errorf("%w: playlist writer not initialized", shared.ErrServiceUnavailable)
	}

	if _, exists, err := e.store.LoadBuild(playlistID); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s (run retry to re-attempt failures)", shared.ErrBuildExists, e.store.BuildPath(playlistID))
	}

	rec, ok, err := e.store.LoadProgress(playlistID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoProgress, playlistID)
	}

	matched := rec.Matched()
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoMatches, playlistID)
	}
	if !rec.IsComplete() {
		e.logger.Warn("building from partial search", "playlist", playlistID, "processed", rec.Cursor.ProcessedCount, "total", rec.Playlist.TotalTracks)
	}

	title := opts.Title
	if title == "" {
		title = rec.Playlist.Name
	}
	desc := opts.Description
	if desc == "" {
		desc = fmt.Sprintf("Converted from Spotify playlist %s %s", rec.Playlist.Name, rec.Playlist.URL)
	}
	privacy := opts.Privacy
	if privacy == "" {
		privacy = "private"
	}

	dest, err := e.writer.CreatePlaylist(ctx, title, desc, privacy)
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	sendProgress(progress, createPlaylistUpdate(dest))
	e.logger.Info("playlist created", "id", dest.ID, "title", dest.Title)

	build := &models.BuildRecord{
		Destination: *dest,
		Added:       []models.MatchResult{},
		Failed:      []models.FailedAdd{},
		Stats:       models.BuildStats{QuotaUnitsUsed: models.CreateQuotaCost},
	}
	result := &BuildResult{Record: build, Progress: rec, QuotaUsed: models.CreateQuotaCost}

	interrupted := e.addAll(ctx, dest.ID, matched, nil, AddVideos, build, result, progress)

	build.RecomputeStats(e.now())
	if err := build.Validate(rec); err != nil {
		return result, err
	}
	if err := e.store.SaveBuild(&state.BuildFile{Progress: rec, Build: build}); err != nil {
		return result, fmt.Errorf("failed to save build: %w", err)
	}

	e.logger.Info("build finished", "playlist", dest.ID, "added", result.Added, "failed", result.Failed, "quota", result.QuotaUsed)
	sendProgress(progress, completeUpdate(
		fmt.Sprintf("Added %d of %d videos to %s", len(build.Added), len(matched), dest.URL),
		result,
	))
	return result, interrupted
}

// Retry re-attempts every failed addition of the existing build. Successes move to the added list and
// persistent failures are re-classified. The build file is rewritten at the end.
func (e *PlaylistEngine) Retry(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) (*BuildResult, error) {
	if e.writer == nil {
		return nil, fmt.Errorf("%w: playlist writer not initialized", shared.ErrServiceUnavailable)
	}

	bf, ok, err := e.store.LoadBuild(playlistID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoBuild, playlistID)
	}

	build := bf.Build
	result := &BuildResult{Record: build, Progress: bf.Progress}
	if len(build.Failed) == 0 {
		sendProgress(progress, completeUpdate("No failed tracks to retry", result))
		return result, nil
	}

	prior := build.Failed
	pending := make([]models.MatchResult, len(prior))
	for i, f := range prior {
		pending[i] = f.Match
	}
	build.Failed = []models.FailedAdd{}

	interrupted := e.addAll(ctx, build.Destination.ID, pending, prior, RetryFailed, build, result, progress)

	build.RecomputeStats(e.now())
	if err := build.Validate(bf.Progress); err != nil {
		return result, err
	}
	if err := e.store.SaveBuild(bf); err != nil {
		return result, fmt.Errorf("failed to save build: %w", err)
	}

	e.logger.Info("retry finished", "playlist", build.Destination.ID, "recovered", result.Added, "failed", result.Failed, "quota", result.QuotaUsed)
	sendProgress(progress, completeUpdate(
		fmt.Sprintf("Recovered %d of %d failed tracks", result.Added, result.Attempted),
		result,
	))
	return result, interrupted
}

// addAll adds each match to playlistID, appending to build.Added or build.Failed. It returns the
// context error when interrupted, after recording the unreached matches as failed.
//
// prior, when set, holds the earlier failure of each match; unreached matches keep it unchanged.
func (e *PlaylistEngine) addAll(ctx context.Context, playlistID string, matches []models.MatchResult, prior []models.FailedAdd, phase Phase, build *models.BuildRecord, result *BuildResult, progress chan<- ProgressUpdate) error {
	total := len(matches)
	for i, m := range matches {
		var err error
		if i > 0 {
			err = e.cfg.AddPacer.Wait(ctx)
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			if prior != nil {
				build.Failed = append(build.Failed, prior[i:]...)
			} else {
				for _, rest := range matches[i:] {
					build.Failed = append(build.Failed, models.FailedAdd{Match: rest, Kind: models.UnknownError, Message: notAttempted})
				}
			}
			e.logger.Warn("additions interrupted", "playlist", playlistID, "remaining", total-i)
			return err
		}

		result.Attempted++
		result.QuotaUsed += models.AddVideoQuotaCost
		build.Stats.QuotaUnitsUsed += models.AddVideoQuotaCost

		err = e.writer.AddVideoToPlaylist(ctx, playlistID, m.Video.ID)
		if err != nil {
			kind, msg := services.ClassifyAddError(err)
			build.Failed = append(build.Failed, models.FailedAdd{Match: m, Kind: kind, Message: msg})
			result.Failed++
			e.logger.Warn("failed to add video", "track", m.Track.String(), "video", m.Video.ID, "kind", kind, "err", msg)
		} else {
			build.Added = append(build.Added, m)
			result.Added++
		}
		sendProgress(progress, addVideoUpdate(phase, i+1, total, m, err))
	}
	return nil
}

// Status loads the persisted progress and build records for playlistID.
func (e *PlaylistEngine) Status(playlistID string) (*StatusResult, error) {
	rec, _, err := e.store.LoadProgress(playlistID)
	if err != nil {
		return nil, err
	}
	bf, _, err := e.store.LoadBuild(playlistID)
	if err != nil {
		return nil, err
	}

	status := &StatusResult{Progress: rec}
	if bf != nil {
		status.Build = bf.Build
		if status.Progress == nil {
			status.Progress = bf.Progress
		}
	}
	if status.Progress == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoProgress, playlistID)
	}
	return status, nil
}

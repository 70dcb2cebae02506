package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

// resolvePlaylist turns a --playlist argument into a playlist reference.
//
// IDs with saved state and anything that parses as a Spotify ID, URI or URL resolve without
// calling Spotify. Names are matched against the user's playlists.
func (r *Runner) resolvePlaylist(ctx context.Context, query string) (*models.PlaylistRef, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: --playlist is required", shared.ErrMissingArgument)
	}
	if r.hasState(query) {
		return &models.PlaylistRef{ID: query}, nil
	}
	if id, ok := tasks.ParsePlaylistID(query); ok {
		return &models.PlaylistRef{ID: id}, nil
	}
	if r.source == nil {
		return nil, fmt.Errorf("%w: run 'sp2yt auth spotify' to look up playlists by name", shared.ErrNotAuthenticated)
	}

	ref, err := tasks.FindPlaylist(ctx, r.source, query)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("resolved playlist", "query", query, "id", ref.ID, "name", ref.Name)
	return ref, nil
}

func (r *Runner) hasState(id string) bool {
	for _, path := range []string{r.store.ProgressPath(id), r.store.BuildPath(id)} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// printProgress drains engine updates to the output. The returned func closes the channel
// and waits for the last update to be written.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource, tasks.LoadProgress:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks, tasks.AddVideos, tasks.RetryFailed:
				r.writePlain("   %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.Checkpoint:
				r.logger.Debug(update.Message)
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// Search runs one search session for the --playlist playlist.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	batch := cmd.Int("batch")
	if batch <= 0 {
		batch = r.config.Transfer.BatchSize
	}

	if cmd.Bool("tui") {
		return r.searchTUI(ctx, cmd.String("playlist"), batch)
	}

	ref, err := r.resolvePlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	r.logger.Info("starting search session", "playlist", ref.ID, "batch", batch)
	session := r.startSession(ctx, models.SearchSession, ref.ID)

	progressCh, wait := r.printProgress()
	result, err := r.engine.Search(ctx, ref.ID, batch, progressCh)
	wait()

	if session != nil && result != nil {
		session.SetCounts(result.Processed(), result.Found, result.NotFound, result.QuotaUsed)
	}
	r.finishSession(session, err)

	if result == nil {
		return err
	}
	r.printSearchSummary(result, err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) printSearchSummary(result *tasks.SearchResult, err error) {
	rec := result.Progress

	title := "Search Session Complete"
	if err != nil {
		title = "Search Session Stopped"
	}
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Playlist: %s (%s)\n", result.Playlist.Name, result.Playlist.ID)
	if result.Processed() > 0 {
		r.writePlain("This session: tracks %d-%d, found %d, not found %d\n",
			result.Start+1, result.Start+result.Processed(), result.Found, result.NotFound)
	} else {
		r.writePlain("This session: no tracks searched\n")
	}
	r.writePlain("Quota used: %d units\n", result.QuotaUsed)
	r.writePlain("Overall: %d/%d searched, %d found, %d quota units total\n",
		rec.Cursor.ProcessedCount, rec.Playlist.TotalTracks, rec.Cursor.FoundCount, rec.Usage.TotalQuotaUnitsUsed)

	switch {
	case errors.Is(err, context.Canceled):
		r.writePlainln("%s", ui.Warn(fmt.Sprintf("⚠ Stopped early. Progress saved, next session resumes at track %d.", rec.Cursor.NextStartIndex+1)))
	case err != nil:
		r.writePlainln("%s", ui.Error(fmt.Sprintf("✗ %v", err)))
	case result.Complete():
		r.writePlainln("%s", ui.Success("✓ All tracks searched."))
		r.writePlain("Run 'sp2yt build --playlist %s' to create the YouTube playlist.\n", rec.Playlist.ID)
	default:
		r.writePlainln("%d tracks remaining. Run search again (next session starts at track %d).", rec.Remaining(), rec.Cursor.NextStartIndex+1)
	}
}

// Status prints the saved search and build progress of a playlist.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.resolvePlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	status, err := r.engine.Status(ref.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	rec := status.Progress
	r.writePlainHeader(rec.Playlist.Name)
	r.writePlain("Playlist ID: %s\n", rec.Playlist.ID)
	if rec.Playlist.URL != "" {
		r.writePlain("URL: %s\n", rec.Playlist.URL)
	}
	r.writePlain("Searched: %d/%d\n", rec.Cursor.ProcessedCount, rec.Playlist.TotalTracks)
	r.writePlain("Found: %d\n", rec.Cursor.FoundCount)
	r.writePlain("Not found: %d\n", rec.Cursor.NotFoundCount)
	r.writePlain("Quota used: %d units over %d tracks searched\n", rec.Usage.TotalQuotaUnitsUsed, rec.Usage.SearchCount)
	if !rec.Cursor.LastUpdated.IsZero() {
		r.writePlain("Last updated: %s\n", rec.Cursor.LastUpdated.Local().Format("2006-01-02 15:04"))
	}

	if rec.IsComplete() {
		r.writePlain("%s\n", ui.Success("Search complete"))
	} else {
		start, end := rec.NextBatch(r.config.Transfer.BatchSize)
		r.writePlain("Next session: tracks %d-%d\n", start+1, end)
	}

	if b := status.Build; b != nil {
		r.writePlain("\n")
		r.printBuild(b)
	}
	return nil
}

func (r *Runner) printBuild(b *models.BuildRecord) {
	r.writePlain("YouTube playlist: %s\n", b.Destination.Title)
	r.writePlain("URL: %s\n", b.Destination.URL)
	r.writePlain("Added: %d\n", len(b.Added))
	r.writePlain("Failed: %d\n", len(b.Failed))
	r.writePlain("Success rate: %.1f%%\n", b.Stats.SuccessRate*100)

	if len(b.Failed) == 0 {
		return
	}
	r.writePlain("\nFailures:\n")
	for _, kind := range models.ErrorKinds {
		if n := b.Stats.FailureKindCounts[kind]; n > 0 {
			r.writePlain("  %-26s %3d  %s\n", kind, n, kind.Description())
		}
	}
}

// Build creates the YouTube playlist for a searched playlist.
func (r *Runner) Build(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.resolvePlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	opts := tasks.BuildOptions{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Privacy:     cmd.String("privacy"),
	}
	if opts.Privacy == "" {
		opts.Privacy = r.config.Transfer.Privacy
	}
	switch opts.Privacy {
	case "private", "unlisted", "public":
	default:
		return fmt.Errorf("%w: privacy must be private, unlisted or public", shared.ErrInvalidFlag)
	}

	r.logger.Info("building playlist", "playlist", ref.ID, "privacy", opts.Privacy)
	session := r.startSession(ctx, models.BuildSession, ref.ID)

	progressCh, wait := r.printProgress()
	result, err := r.engine.Build(ctx, ref.ID, opts, progressCh)
	wait()

	return r.finishBuild(session, result, err, "Build")
}

// Retry re-attempts the failed additions of a built playlist.
func (r *Runner) Retry(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.resolvePlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	r.logger.Info("retrying failed additions", "playlist", ref.ID)
	session := r.startSession(ctx, models.RetrySession, ref.ID)

	progressCh, wait := r.printProgress()
	result, err := r.engine.Retry(ctx, ref.ID, progressCh)
	wait()

	if err == nil && result != nil && result.Attempted == 0 {
		r.finishSession(session, nil)
		return r.writePlain("%s\n", ui.Success("✓ Nothing to retry, every matched video is in the playlist"))
	}
	return r.finishBuild(session, result, err, "Retry")
}

func (r *Runner) finishBuild(session *models.Session, result *tasks.BuildResult, err error, label string) error {
	if session != nil && result != nil {
		session.SetCounts(result.Attempted, result.Added, result.Failed, result.QuotaUsed)
		if result.Record != nil {
			session.SetDestinationID(result.Record.Destination.ID)
		}
	}
	r.finishSession(session, err)

	if result == nil || result.Record == nil {
		return err
	}

	r.writePlain("\n")
	if err != nil {
		r.writePlainHeader(label + " Stopped")
	} else {
		r.writePlainHeader(label + " Complete")
	}
	r.writePlain("This run: %d attempted, %d added, %d failed, %d quota units\n\n",
		result.Attempted, result.Added, result.Failed, result.QuotaUsed)
	r.printBuild(result.Record)

	if len(result.Record.Failed) > 0 {
		r.writePlainln("Run 'sp2yt retry --playlist %s' to retry failed videos.", result.Progress.Playlist.ID)
	}
	if errors.Is(err, context.Canceled) {
		r.writePlainln("%s", ui.Warn("⚠ Stopped early. Videos not reached were recorded as failed and can be retried."))
		return nil
	}
	return err
}

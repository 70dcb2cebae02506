package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/ui"
)

// searchTUI runs a search session inside the terminal UI. Without a playlist the UI lists the
// user's playlists first.
func (r *Runner) searchTUI(ctx context.Context, query string, batch int) error {
	if r.source == nil && query == "" {
		return fmt.Errorf("%w: run 'sp2yt auth spotify' first", shared.ErrNotAuthenticated)
	}

	var ref *models.PlaylistRef
	if query != "" {
		var err error
		if ref, err = r.resolvePlaylist(ctx, query); err != nil {
			return err
		}
	}

	// Redirect logs to a file so they do not interfere with TUI rendering
	if !r.wired {
		logPath := filepath.Join(r.config.Transfer.DataDir, "sp2yt-tui.log")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer f.Close()

		level := r.logger.GetLevel()
		r.logger = shared.NewLogger(f)
		r.logger.SetLevel(level)
		r.engine = nil
		r.wire()
	}

	started := time.Now()
	model := ui.NewModel(ctx, r.source, r.engine, batch)
	if ref != nil {
		model = model.WithPlaylist(*ref)
	}

	final, err := ui.Run(model)
	if err != nil {
		return err
	}

	result := final.Result()
	if result == nil {
		return final.Err()
	}

	session := models.NewSession(models.SearchSession, result.Playlist.ID)
	session.SetStartedAt(started)
	if session = r.recordSession(ctx, session); session != nil {
		session.SetCounts(result.Processed(), result.Found, result.NotFound, result.QuotaUsed)
		r.finishSession(session, final.Err())
	}
	r.printSearchSummary(result, final.Err())
	return nil
}

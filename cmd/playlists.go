package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the user's Spotify playlists with any saved search progress.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.source == nil {
		return fmt.Errorf("%w: run 'sp2yt auth spotify' first", shared.ErrNotAuthenticated)
	}

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := r.source.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TotalTracks)
		if rec, ok, err := r.store.LoadProgress(p.ID); err == nil && ok {
			r.writePlain("   Searched: %d/%d (%d found)\n", rec.Cursor.ProcessedCount, rec.Playlist.TotalTracks, rec.Cursor.FoundCount)
		}
		r.writePlain("\n")
	}

	return nil
}

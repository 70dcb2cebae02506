package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

// dailyQuota is the default YouTube Data API allowance per project and day.
const dailyQuota = 10000

// Report exports the match results of a playlist.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ref, err := r.resolvePlaylist(ctx, cmd.String("playlist"))
	if err != nil {
		return err
	}

	status, err := r.engine.Status(ref.ID)
	if err != nil {
		return err
	}
	report := formatter.Report{Progress: status.Progress, Build: status.Build}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.Export(report, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	path, err := formatter.WriteReport(report, format, r.config.Transfer.DataDir, output)
	if err != nil {
		return err
	}

	r.logger.Info("report written", "playlist", ref.ID, "path", path)
	r.writePlain("%s\n", ui.Success("✓ Report written to "+path))
	r.writePlain("  Tracks: %d (%d found, %d not found)\n",
		len(report.Progress.Results), report.Progress.Cursor.FoundCount, report.Progress.Cursor.NotFoundCount)
	return nil
}

type sessionView struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	PlaylistID    string     `json:"playlist_id"`
	DestinationID string     `json:"destination_id,omitempty"`
	Status        string     `json:"status"`
	Processed     int        `json:"processed"`
	Succeeded     int        `json:"succeeded"`
	Failed        int        `json:"failed"`
	QuotaUsed     int        `json:"quota_used"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func newSessionView(s *models.Session) sessionView {
	return sessionView{
		ID:            s.ID(),
		Kind:          string(s.Kind()),
		PlaylistID:    s.PlaylistID(),
		DestinationID: s.DestinationID(),
		Status:        string(s.Status()),
		Processed:     s.Processed(),
		Succeeded:     s.Succeeded(),
		Failed:        s.Failed(),
		QuotaUsed:     s.QuotaUsed(),
		Error:         s.ErrorMessage(),
		StartedAt:     s.StartedAt(),
		FinishedAt:    s.FinishedAt(),
	}
}

// History lists recorded sessions and the quota spent over the last day.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.String("kind")
	switch models.SessionKind(kind) {
	case "", models.SearchSession, models.BuildSession, models.RetrySession:
	default:
		return fmt.Errorf("%w: kind must be search, build or retry", shared.ErrInvalidFlag)
	}

	playlistID := cmd.String("playlist")
	if id, ok := tasks.ParsePlaylistID(playlistID); ok {
		playlistID = id
	}

	repo, err := r.sessionRepo(ctx)
	if err != nil {
		return err
	}

	sessions, err := repo.List(map[string]any{
		"playlist_id": playlistID,
		"kind":        kind,
		"limit":       cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	used, err := repo.QuotaUsedSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = newSessionView(s)
		}
		return r.writeJSON(map[string]any{"sessions": views, "quota_used_24h": used}, true)
	}

	if len(sessions) == 0 {
		r.writePlain("No sessions recorded\n")
	} else {
		r.writePlain("%-16s  %-6s  %-9s  %-24s  %6s  %6s  %6s  %6s\n",
			"STARTED", "KIND", "STATUS", "PLAYLIST", "DONE", "OK", "FAIL", "QUOTA")
		for _, s := range sessions {
			r.writePlain("%-16s  %-6s  %-9s  %-24s  %6d  %6d  %6d  %6d\n",
				s.StartedAt().Local().Format("2006-01-02 15:04"), s.Kind(), s.Status(), s.PlaylistID(),
				s.Processed(), s.Succeeded(), s.Failed(), s.QuotaUsed())
			if msg := s.ErrorMessage(); msg != "" {
				r.writePlain("  %s\n", ui.Error(msg))
			}
		}
	}

	line := fmt.Sprintf("Quota used in the last 24h: %d/%d units", used, dailyQuota)
	if used >= dailyQuota {
		line = ui.Warn(line + " (daily limit reached)")
	}
	r.writePlainln("%s", line)
	return nil
}

// package formatter renders match results and build outcomes as CSV, Markdown or plain text reports
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

// Format names a report format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// ParseFormat accepts csv, markdown/md and txt/text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// Report is the input to every formatter. Build is nil before a playlist is built.
type Report struct {
	Progress *models.ProgressRecord
	Build    *models.BuildRecord
}

// addStatus returns "added", the failure kind, or "" for a result the build never saw.
func (r Report) addStatus() map[string]string {
	status := make(map[string]string)
	if r.Build == nil {
		return status
	}
	for _, m := range r.Build.Added {
		status[m.Track.ID] = "added"
	}
	for _, f := range r.Build.Failed {
		status[f.Match.Track.ID] = string(f.Kind)
	}
	return status
}

// ExportToCSV writes one row per search result with columns:
// Index, Track ID, Title, Artist, Video ID, Video Title, Channel, Confidence, Queries, Status
func ExportToCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Track ID", "Title", "Artist", "Video ID", "Video Title", "Channel", "Confidence", "Queries", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	status := report.addStatus()
	for i, r := range report.Progress.Results {
		var videoID, videoTitle, channel, confidence string
		st := "not_found"
		if r.Video != nil {
			videoID, videoTitle, channel = r.Video.ID, r.Video.Title, r.Video.Channel
			confidence = strconv.FormatFloat(r.Confidence, 'f', 2, 64)
			st = "matched"
			if s, ok := status[r.Track.ID]; ok {
				st = s
			}
		}
		record := []string{
			strconv.Itoa(i + 1),
			r.Track.ID,
			r.Track.Title,
			strings.Join(r.Track.Artists, ", "),
			videoID,
			videoTitle,
			channel,
			confidence,
			strconv.Itoa(len(r.QueriesAttempted)),
			st,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a summary followed by matched, unmatched and failed sections.
func ExportToMarkdown(report Report) ([]byte, error) {
	var buf bytes.Buffer
	p := report.Progress

	fmt.Fprintf(&buf, "# %s\n\n", p.Playlist.Name)
	if p.Playlist.URL != "" {
		fmt.Fprintf(&buf, "**Source**: %s\n", p.Playlist.URL)
	}
	fmt.Fprintf(&buf, "**Searched**: %d / %d\n", p.Cursor.ProcessedCount, p.Playlist.TotalTracks)
	fmt.Fprintf(&buf, "**Found**: %d\n", p.Cursor.FoundCount)
	fmt.Fprintf(&buf, "**Not found**: %d\n", p.Cursor.NotFoundCount)
	fmt.Fprintf(&buf, "**Search quota**: %d units\n", p.Usage.TotalQuotaUnitsUsed)

	if b := report.Build; b != nil {
		fmt.Fprintf(&buf, "**YouTube playlist**: [%s](%s)\n", b.Destination.Title, b.Destination.URL)
		fmt.Fprintf(&buf, "**Added**: %d (%.1f%%)\n", len(b.Added), b.Stats.SuccessRate*100)
		fmt.Fprintf(&buf, "**Build quota**: %d units\n", b.Stats.QuotaUnitsUsed)
	}

	buf.WriteString("\n## Matched\n\n")
	for i, r := range p.Results {
		if r.Video == nil {
			continue
		}
		fmt.Fprintf(&buf, "%d. %s → [%s](%s) (%.0f%%)\n", i+1, r.Track, r.Video.Title, r.Video.URL(), r.Confidence*100)
	}

	if p.Cursor.NotFoundCount > 0 {
		buf.WriteString("\n## Not Found\n\n")
		for i, r := range p.Results {
			if r.Video != nil {
				continue
			}
			fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLabel(r.Track))
		}
	}

	if b := report.Build; b != nil && len(b.Failed) > 0 {
		buf.WriteString("\n## Failed Additions\n\n")
		for _, f := range b.Failed {
			fmt.Fprintf(&buf, "- %s: %s", f.Match.Track, f.Kind.Description())
			if f.Message != "" {
				fmt.Fprintf(&buf, " (%s)", f.Message)
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders one line per result.
func ExportToText(report Report) ([]byte, error) {
	var buf bytes.Buffer
	p := report.Progress

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Playlist.Name)
	fmt.Fprintf(&buf, "Searched: %d/%d (found %d)\n", p.Cursor.ProcessedCount, p.Playlist.TotalTracks, p.Cursor.FoundCount)
	if b := report.Build; b != nil {
		fmt.Fprintf(&buf, "Added: %d, failed: %d\n", len(b.Added), len(b.Failed))
	}
	buf.WriteString("\n")

	status := report.addStatus()
	for i, r := range p.Results {
		if r.Video == nil {
			fmt.Fprintf(&buf, "%d. ✗ %s\n", i+1, trackLabel(r.Track))
			continue
		}
		line := fmt.Sprintf("%d. ✓ %s -> %s", i+1, r.Track, r.Video.URL())
		if s, ok := status[r.Track.ID]; ok && s != "added" {
			line += " [" + s + "]"
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes(), nil
}

func trackLabel(t models.Track) string {
	if t.Title == "" {
		return "(unavailable track)"
	}
	return t.String()
}

// Export renders report in format f.
func Export(report Report, f Format) ([]byte, error) {
	if report.Progress == nil {
		return nil, fmt.Errorf("%w: report needs a progress record", shared.ErrInvalidInput)
	}
	switch f {
	case CSV:
		return ExportToCSV(report)
	case Markdown:
		return ExportToMarkdown(report)
	case Text:
		return ExportToText(report)
	}
	return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidFlag, f)
}

// WriteReport renders report and writes it to path.
//
// Defaults to report_{playlist id}{ext} in dir when path is empty.
func WriteReport(report Report, f Format, dir, path string) (string, error) {
	data, err := Export(report, f)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(dir, "report_"+report.Progress.Playlist.ID+f.Extension())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

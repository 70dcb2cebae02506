// Package state persists progress and build records as JSON files, one pair per source playlist.
//
// Files live in a single data directory:
//
//	progress_<playlist id>.json  search-phase [models.ProgressRecord]
//	build_<playlist id>.json     [BuildFile] with the progress snapshot and the [models.BuildRecord]
//
// Writes go to a temp file that is renamed over the target, so a crash leaves the previous
// checkpoint intact.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// BuildFile is the persisted output of a build: the progress it was built from and its outcome.
type BuildFile struct {
	Progress *models.ProgressRecord `json:"progress_data"`
	Build    *models.BuildRecord    `json:"build_result"`
}

// Store reads and writes records under a data directory.
type Store struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on first write.
func NewStore(dir string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{dir: dir, logger: logger.With("component", "state"), now: time.Now}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// ProgressPath returns the progress file path for playlistID.
func (s *Store) ProgressPath(playlistID string) string {
	return filepath.Join(s.dir, "progress_"+safeID(playlistID)+".json")
}

// BuildPath returns the build file path for playlistID.
func (s *Store) BuildPath(playlistID string) string {
	return filepath.Join(s.dir, "build_"+safeID(playlistID)+".json")
}

// LoadProgress reads the progress record for playlistID. ok is false when none exists.
func (s *Store) LoadProgress(playlistID string) (rec *models.ProgressRecord, ok bool, err error) {
	rec = &models.ProgressRecord{}
	ok, err = s.read(s.ProgressPath(playlistID), rec)
	if !ok || err != nil {
		return nil, ok, err
	}
	if rec.Results == nil {
		rec.Results = []models.MatchResult{}
	}
	if err := rec.Validate(); err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", shared.ErrCorruptFile, s.ProgressPath(playlistID), err)
	}
	return rec, true, nil
}

// SaveProgress checkpoints rec: it aligns the batch cursor, validates the counters and
// atomically replaces the progress file.
func (s *Store) SaveProgress(rec *models.ProgressRecord) error {
	rec.Checkpoint(s.now())
	if err := rec.Validate(); err != nil {
		return err
	}
	path := s.ProgressPath(rec.Playlist.ID)
	if err := s.write(path, rec); err != nil {
		return err
	}
	s.logger.Debug("checkpoint saved", "playlist", rec.Playlist.ID, "processed", rec.Cursor.ProcessedCount)
	return nil
}

// LoadBuild reads the build file for playlistID. ok is false when none exists.
func (s *Store) LoadBuild(playlistID string) (bf *BuildFile, ok bool, err error) {
	bf = &BuildFile{}
	ok, err = s.read(s.BuildPath(playlistID), bf)
	if !ok || err != nil {
		return nil, ok, err
	}
	if bf.Progress == nil || bf.Build == nil {
		return nil, true, fmt.Errorf("%w: %s: missing progress or build section", shared.ErrCorruptFile, s.BuildPath(playlistID))
	}
	return bf, true, nil
}

// SaveBuild atomically replaces the build file for the playlist in bf.Progress.
func (s *Store) SaveBuild(bf *BuildFile) error {
	if bf.Progress == nil || bf.Build == nil {
		return fmt.Errorf("%w: build file needs progress and build", shared.ErrInvalidInput)
	}
	path := s.BuildPath(bf.Progress.Playlist.ID)
	if err := s.write(path, bf); err != nil {
		return err
	}
	s.logger.Debug("build saved", "playlist", bf.Progress.Playlist.ID, "added", len(bf.Build.Added), "failed", len(bf.Build.Failed))
	return nil
}

func (s *Store) read(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", shared.ErrCorruptFile, path, err)
	}
	return true, nil
}

func (s *Store) write(path string, v any) error {
	data, err := shared.MarshalJSON(v)
	if err != nil {
		return err
	}
	return shared.WriteFileAtomic(path, data, 0o644)
}

// safeID keeps playlist ids usable as file name components.
func safeID(id string) string {
	return unsafeChars.ReplaceAllString(id, "_")
}

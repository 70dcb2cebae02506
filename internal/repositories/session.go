package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/sp2yt/internal/models"
	"github.com/desertthunder/sp2yt/internal/shared"
)

const sessionColumns = `id, kind, playlist_id, destination_id, status, processed, succeeded, failed, quota_used,
	error_message, started_at, finished_at, created_at, updated_at`

// SessionRepository implements Repository[*models.Session] for session history.
type SessionRepository struct {
	db *sql.DB
}

var _ Repository[*models.Session] = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session with a generated ID
func (r *SessionRepository) Create(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	s.SetID(shared.GenerateID())

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		s.ID(),
		s.Kind(),
		s.PlaylistID(),
		s.DestinationID(),
		s.Status(),
		s.Processed(),
		s.Succeeded(),
		s.Failed(),
		s.QuotaUsed(),
		s.ErrorMessage(),
		s.StartedAt(),
		s.FinishedAt(),
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	s, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return s, err
}

// Update stores the status, counters and timestamps of an existing session
func (r *SessionRepository) Update(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	s.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET destination_id = ?, status = ?, processed = ?, succeeded = ?, failed = ?, quota_used = ?,
			error_message = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		s.DestinationID(),
		s.Status(),
		s.Processed(),
		s.Succeeded(),
		s.Failed(),
		s.QuotaUsed(),
		s.ErrorMessage(),
		s.FinishedAt(),
		now,
		s.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return affectedOne(result, "session", s.ID())
}

// Finish marks s completed or failed and persists it.
func (r *SessionRepository) Finish(s *models.Session, err error) error {
	s.Finish(err)
	return r.Update(s)
}

// Delete removes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return affectedOne(result, "session", id)
}

// List retrieves sessions newest first. Supported criteria are "playlist_id", "kind", "status"
// (strings) and "limit" (int).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE 1 = 1`
	args := []any{}

	for _, col := range []string{"playlist_id", "kind", "status"} {
		if v, ok := criteria[col]; ok {
			s := fmt.Sprint(v)
			if s == "" {
				continue
			}
			query += " AND " + col + " = ?"
			args = append(args, s)
		}
	}

	query += " ORDER BY started_at DESC, created_at DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

// QuotaUsedSince sums the quota of sessions started at or after since.
func (r *SessionRepository) QuotaUsedSince(since time.Time) (int, error) {
	var total int
	err := r.db.QueryRow("SELECT COALESCE(SUM(quota_used), 0) FROM sessions WHERE started_at >= ?", since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum quota: %w", err)
	}
	return total, nil
}

// scan reads one row into a [models.Session]
func (r *SessionRepository) scan(row scanner) (*models.Session, error) {
	var (
		id, kind, playlistID, destinationID, status, errorMsg string
		processed, succeeded, failed, quotaUsed             int
		startedAt, createdAt, updatedAt                     time.Time
		finishedAt                                          sql.NullTime
	)

	err := row.Scan(&id, &kind, &playlistID, &destinationID, &status, &processed, &succeeded, &failed, &quotaUsed,
		&errorMsg, &startedAt, &finishedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s := models.NewSession(models.SessionKind(kind), playlistID)
	s.SetID(id)
	s.SetDestinationID(destinationID)
	s.SetStatus(models.SessionStatus(status))
	s.SetCounts(processed, succeeded, failed, quotaUsed)
	s.SetErrorMessage(errorMsg)
	s.SetStartedAt(startedAt)
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		s.SetFinishedAt(&finishedAt.Time)
	}
	return s, nil
}

// package repositories provides persistence layer implementations for session history.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("record not found")

// Repository defines the common operations for persisted models.
type Repository[T models.Model] interface {
	Create(m T) error
	Get(id string) (T, error)
	Update(m T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// affectedOne returns ErrNotFound when result touched no rows.
func affectedOne(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return nil
}

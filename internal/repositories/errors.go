package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no entity has the requested identifier.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a write violates a uniqueness constraint.
	ErrAlreadyExists = errors.New("already exists")
	// ErrClosed is returned by repositories whose unit of work has been closed.
	ErrClosed = errors.New("unit of work is closed")
	// ErrInvalidFilter is returned when a filter names an unknown column.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidReference is returned when a write points at a row that does
	// not exist. It wraps ErrNotFound.
	ErrInvalidReference = fmt.Errorf("referenced row missing: %w", ErrNotFound)
)

// TranslateError maps driver-level GORM errors onto the repository taxonomy,
// keeping the driver message. The database must be opened with
// gorm.Config{TranslateError: true} for duplicate keys and foreign key
// violations to be recognised.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return err
}

// Package uow binds one repository per entity kind to a single transactional
// session and commits or rolls them back together.
package uow

import (
	"context"
	"fmt"
	"log"

	"market/internal/repositories"
)

// UnitOfWork aggregates the marketplace repositories behind one transaction.
// A unit serves exactly one logical request and must not be shared between
// goroutines.
type UnitOfWork interface {
	Users() repositories.UserRepository
	Products() repositories.ProductRepository
	Images() repositories.ImageRepository
	ProductImages() repositories.ProductImageRepository
	Cart() repositories.CartRepository

	// Commit durably applies every staged write. On failure nothing is
	// retained and the unit is left rolled back. After a successful commit
	// the unit keeps serving new work in a fresh transaction.
	Commit(ctx context.Context) error
	// Rollback discards every write staged since the last commit.
	Rollback(ctx context.Context) error
	// Close rolls back uncommitted work and releases the session. Every
	// repository returns repositories.ErrClosed afterwards.
	Close() error
}

// Factory opens units of work.
type Factory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Run opens a unit, passes it to fn and closes it on every exit path,
// including panics. fn is responsible for calling Commit; anything it leaves
// uncommitted is rolled back.
func Run(ctx context.Context, factory Factory, fn func(UnitOfWork) error) (err error) {
	unit, err := factory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer func() {
		if closeErr := unit.Close(); closeErr != nil {
			log.Printf("Error closing unit of work: %v", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()
	return fn(unit)
}

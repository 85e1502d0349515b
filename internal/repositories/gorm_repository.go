package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Conn returns the transaction a repository must run on, or ErrClosed once
// the owning unit of work has been released.
type Conn func() (*gorm.DB, error)

// GORMRepository is a GORM implementation of Repository bound to the
// transaction of one unit of work.
type GORMRepository[T Entity] struct {
	conn    Conn
	kind    string
	orderBy string
}

// NewGORMRepository creates a new instance of GORMRepository. Lists are
// sorted by orderBy, the entity's creation column, then by id.
func NewGORMRepository[T Entity](kind, orderBy string, conn Conn) *GORMRepository[T] {
	return &GORMRepository[T]{
		conn:    conn,
		kind:    kind,
		orderBy: orderBy,
	}
}

// Get retrieves a single entity by its ID.
func (r *GORMRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var entity T
	if err := db.WithContext(ctx).First(&entity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unable to find a %s with id=%s: %w", r.kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s by ID %s: %w", r.kind, id, err)
	}
	return &entity, nil
}

// List retrieves every entity matching the filter, oldest first.
func (r *GORMRepository[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	var zero T
	for column := range filter {
		if _, ok := zero.Field(column); !ok {
			return nil, fmt.Errorf("%s has no column %q: %w", r.kind, column, ErrInvalidFilter)
		}
	}

	query := db.WithContext(ctx).Order(r.orderBy).Order("id")
	if len(filter) > 0 {
		query = query.Where(map[string]any(filter))
	}
	entities := []T{}
	if err := query.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.kind, err)
	}
	return entities, nil
}

// Add inserts a new entity inside the unit's transaction.
func (r *GORMRepository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", r.kind, TranslateError(err))
	}
	return entity, nil
}

// Update writes every field of entity inside the unit's transaction.
func (r *GORMRepository[T]) Update(ctx context.Context, entity *T) (*T, error) {
	db, err := r.conn()
	if err != nil {
		return nil, err
	}
	// Save writes zero values too, so a full replace clears fields.
	if err := db.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", r.kind, TranslateError(err))
	}
	return entity, nil
}

// Delete removes entity inside the unit's transaction.
func (r *GORMRepository[T]) Delete(ctx context.Context, entity *T) error {
	db, err := r.conn()
	if err != nil {
		return err
	}
	id := (*entity).EntityID()
	res := db.WithContext(ctx).Delete(entity, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", r.kind, TranslateError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unable to find a %s with id=%s: %w", r.kind, id, ErrNotFound)
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"time"
)

// MemoryRepository is an in-memory implementation of Repository. Writes are
// staged locally and reach the shared MemoryStore only through
// MemoryStore.Commit; reads see the committed rows overlaid with the staged
// ones.
type MemoryRepository[T Entity] struct {
	store   *MemoryStore
	kind    string
	guard   func() error
	staged  map[string]T
	order   []string
	deleted map[string]bool
}

// NewMemoryRepository creates a repository over the kind table of store.
// guard is consulted before every operation and reports ErrClosed once the
// owning unit of work is released.
func NewMemoryRepository[T Entity](store *MemoryStore, kind string, guard func() error) *MemoryRepository[T] {
	store.table(kind)
	return &MemoryRepository[T]{
		store:   store,
		kind:    kind,
		guard:   guard,
		staged:  make(map[string]T),
		deleted: make(map[string]bool),
	}
}

// Get returns the entity with the given ID.
func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	if entity, ok := r.lookup(id); ok {
		return &entity, nil
	}
	return nil, fmt.Errorf("unable to find a %s with id=%s: %w", r.kind, id, ErrNotFound)
}

// List returns every visible entity matching filter in insertion order.
func (r *MemoryRepository[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	var zero T
	for column := range filter {
		if _, ok := zero.Field(column); !ok {
			return nil, fmt.Errorf("%s has no column %q: %w", r.kind, column, ErrInvalidFilter)
		}
	}

	r.store.mu.RLock()
	t := r.store.table(r.kind)
	ids := make([]string, 0, len(t.order)+len(r.order))
	ids = append(ids, t.order...)
	for _, id := range r.order {
		if _, committed := t.rows[id]; !committed {
			ids = append(ids, id)
		}
	}
	r.store.mu.RUnlock()

	result := []T{}
	for _, id := range ids {
		entity, ok := r.lookup(id)
		if ok && matches(entity, filter) {
			result = append(result, entity)
		}
	}
	return result, nil
}

// Add stages a new entity.
func (r *MemoryRepository[T]) Add(ctx context.Context, entity *T) (*T, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	r.stage(entity)
	return entity, nil
}

// Update stages the current state of entity.
func (r *MemoryRepository[T]) Update(ctx context.Context, entity *T) (*T, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	r.stage(entity)
	return entity, nil
}

// Delete stages the removal of entity.
func (r *MemoryRepository[T]) Delete(ctx context.Context, entity *T) error {
	if err := r.guard(); err != nil {
		return err
	}
	id := (*entity).EntityID()
	if _, ok := r.lookup(id); !ok {
		return fmt.Errorf("unable to find a %s with id=%s: %w", r.kind, id, ErrNotFound)
	}
	delete(r.staged, id)
	r.order = without(r.order, id)
	r.deleted[id] = true
	return nil
}

// Discard drops every staged write.
func (r *MemoryRepository[T]) Discard() {
	r.staged = make(map[string]T)
	r.order = nil
	r.deleted = make(map[string]bool)
}

func (r *MemoryRepository[T]) stage(entity *T) {
	if t, ok := any(entity).(toucher); ok {
		t.Touch(time.Now())
	}
	id := (*entity).EntityID()
	if _, ok := r.staged[id]; !ok {
		r.order = append(r.order, id)
	}
	r.staged[id] = *entity
	delete(r.deleted, id)
}

func (r *MemoryRepository[T]) lookup(id string) (T, bool) {
	var zero T
	if r.deleted[id] {
		return zero, false
	}
	if entity, ok := r.staged[id]; ok {
		return entity, true
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	row, ok := r.store.table(r.kind).rows[id]
	if !ok {
		return zero, false
	}
	return row.(T), true
}

func (r *MemoryRepository[T]) tableKind() string { return r.kind }

// validate checks the table as it would look after apply. Called with the
// store lock held.
func (r *MemoryRepository[T]) validate(t *memoryTable) error {
	if len(r.staged) == 0 {
		return nil
	}
	for _, key := range t.keys {
		owners := make(map[string]string)
		check := func(id string, row any) error {
			k := key(row)
			if k == "" {
				return nil
			}
			if other, ok := owners[k]; ok && other != id {
				return fmt.Errorf("%s %q violates a unique constraint: %w", r.kind, k, ErrAlreadyExists)
			}
			owners[k] = id
			return nil
		}
		for id, row := range t.rows {
			if r.deleted[id] {
				continue
			}
			if staged, ok := r.staged[id]; ok {
				row = staged
			}
			if err := check(id, row); err != nil {
				return err
			}
		}
		for _, id := range r.order {
			if _, committed := t.rows[id]; committed {
				continue
			}
			if err := check(id, r.staged[id]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *MemoryRepository[T]) written(fn func(id string, row any) error) error {
	for _, id := range r.order {
		if err := fn(id, r.staged[id]); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryRepository[T]) visible(t *memoryTable, id string) bool {
	if r.deleted[id] {
		return false
	}
	if _, ok := r.staged[id]; ok {
		return true
	}
	_, ok := t.rows[id]
	return ok
}

// apply writes the staged state into t. Called with the store lock held.
func (r *MemoryRepository[T]) apply(t *memoryTable) {
	for id := range r.deleted {
		t.remove(id)
	}
	for _, id := range r.order {
		if _, committed := t.rows[id]; !committed {
			t.order = append(t.order, id)
		}
		t.rows[id] = r.staged[id]
	}
}

func matches[T Entity](entity T, filter Filter) bool {
	for column, want := range filter {
		got, _ := entity.Field(column)
		if got != want {
			return false
		}
	}
	return true
}

func without(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

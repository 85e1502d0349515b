package repositories

import (
	"fmt"
	"sync"

	"market/internal/models"
)

// MemoryStore is an in-memory backing store shared by memory units of work.
// It plays the role of the database: committed rows live here, and
// uniqueness and reference constraints are enforced here at commit time.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	kind  string
	rows  map[string]any
	order []string
	keys  []func(any) string
	refs  []memoryRef
}

// memoryRef is a foreign key: column names a row of the target table.
// Removing the target removes the referring row too.
type memoryRef struct {
	target string
	column func(any) string
}

// NewMemoryStore creates a store with a table and the uniqueness constraints
// of every marketplace entity.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{tables: make(map[string]*memoryTable)}
	registerTable(s, KindUser, func(u models.User) string { return u.Username })
	registerTable[models.Product](s, KindProduct)
	registerTable[models.Image](s, KindImage)
	registerTable(s, KindProductImage, func(pi models.ProductImage) string { return pi.ImageID })
	registerTable(s, KindCartItem, func(c models.CartItem) string { return c.UserID + "/" + c.ProductID })

	registerReference(s, KindProduct, KindUser, func(p models.Product) string { return p.OwnerID })
	registerReference(s, KindProductImage, KindProduct, func(pi models.ProductImage) string { return pi.ProductID })
	registerReference(s, KindProductImage, KindImage, func(pi models.ProductImage) string { return pi.ImageID })
	registerReference(s, KindCartItem, KindProduct, func(c models.CartItem) string { return c.ProductID })
	registerReference(s, KindCartItem, KindUser, func(c models.CartItem) string { return c.UserID })
	return s
}

// registerTable adds a table whose rows are unique under every key function.
// A key function returning "" leaves that row unconstrained.
func registerTable[T Entity](s *MemoryStore, kind string, keys ...func(T) string) {
	t := &memoryTable{kind: kind, rows: make(map[string]any)}
	for _, key := range keys {
		t.keys = append(t.keys, func(row any) string { return key(row.(T)) })
	}
	s.tables[kind] = t
}

// registerReference makes column of every kind row point at a target row.
func registerReference[T Entity](s *MemoryStore, kind, target string, column func(T) string) {
	t := s.table(kind)
	s.table(target)
	t.refs = append(t.refs, memoryRef{
		target: target,
		column: func(row any) string { return column(row.(T)) },
	})
}

func (s *MemoryStore) table(kind string) *memoryTable {
	t, ok := s.tables[kind]
	if !ok {
		panic(fmt.Sprintf("memory store has no %s table", kind))
	}
	return t
}

// Staged is the pending state of one memory repository.
type Staged interface {
	// Discard drops every staged write.
	Discard()
	validate(t *memoryTable) error
	apply(t *memoryTable)
	tableKind() string
	// written calls fn for every staged insert or update.
	written(fn func(id string, row any) error) error
	// visible reports whether id exists in t once the changes are applied.
	visible(t *memoryTable, id string) bool
}

// Commit atomically applies every staged change, or none of them if any
// would violate a uniqueness or reference constraint. Rows whose referenced
// row is removed are removed with it. Staged state is discarded on success.
func (s *MemoryStore) Commit(changes ...Staged) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := make(map[string]Staged, len(changes))
	for _, c := range changes {
		if err := c.validate(s.table(c.tableKind())); err != nil {
			return err
		}
		byKind[c.tableKind()] = c
	}
	for _, c := range changes {
		if err := s.checkReferences(c, byKind); err != nil {
			return err
		}
	}
	for _, c := range changes {
		c.apply(s.table(c.tableKind()))
		c.Discard()
	}
	s.cascade()
	return nil
}

func (s *MemoryStore) checkReferences(c Staged, byKind map[string]Staged) error {
	t := s.table(c.tableKind())
	if len(t.refs) == 0 {
		return nil
	}
	return c.written(func(id string, row any) error {
		for _, ref := range t.refs {
			key := ref.column(row)
			target := s.table(ref.target)
			exists := false
			if pending, ok := byKind[ref.target]; ok {
				exists = pending.visible(target, key)
			} else {
				_, exists = target.rows[key]
			}
			if !exists {
				return fmt.Errorf("%s %s points at %s %q: %w", t.kind, id, ref.target, key, ErrInvalidReference)
			}
		}
		return nil
	})
}

// cascade removes rows whose referenced row no longer exists, until none
// are left. Called with the store lock held.
func (s *MemoryStore) cascade() {
	for removed := true; removed; {
		removed = false
		for _, t := range s.tables {
			for _, ref := range t.refs {
				target := s.table(ref.target)
				for _, id := range append([]string(nil), t.order...) {
					if _, ok := target.rows[ref.column(t.rows[id])]; !ok {
						t.remove(id)
						removed = true
					}
				}
			}
		}
	}
}

func (t *memoryTable) remove(id string) {
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

package uow

import (
	"context"
	"fmt"
	"sync"

	"market/internal/models"
	"market/internal/repositories"
)

// MemoryFactory opens units of work over a shared MemoryStore.
type MemoryFactory struct {
	store *repositories.MemoryStore
}

// NewMemoryFactory creates a factory over store.
func NewMemoryFactory(store *repositories.MemoryStore) *MemoryFactory {
	return &MemoryFactory{store: store}
}

// Begin opens a unit with empty staging areas.
func (f *MemoryFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	u := &MemoryUnitOfWork{store: f.store}
	u.users = repositories.NewMemoryRepository[models.User](f.store, repositories.KindUser, u.guard)
	u.products = repositories.NewMemoryRepository[models.Product](f.store, repositories.KindProduct, u.guard)
	u.images = repositories.NewMemoryRepository[models.Image](f.store, repositories.KindImage, u.guard)
	u.productImages = repositories.NewMemoryRepository[models.ProductImage](f.store, repositories.KindProductImage, u.guard)
	u.cart = repositories.NewMemoryRepository[models.CartItem](f.store, repositories.KindCartItem, u.guard)
	return u, nil
}

// MemoryUnitOfWork is a UnitOfWork whose writes are staged in memory until
// Commit hands them to the store.
type MemoryUnitOfWork struct {
	mu     sync.Mutex
	store  *repositories.MemoryStore
	closed bool

	users         *repositories.MemoryRepository[models.User]
	products      *repositories.MemoryRepository[models.Product]
	images        *repositories.MemoryRepository[models.Image]
	productImages *repositories.MemoryRepository[models.ProductImage]
	cart          *repositories.MemoryRepository[models.CartItem]
}

func (u *MemoryUnitOfWork) Users() repositories.UserRepository       { return u.users }
func (u *MemoryUnitOfWork) Products() repositories.ProductRepository { return u.products }
func (u *MemoryUnitOfWork) Images() repositories.ImageRepository     { return u.images }
func (u *MemoryUnitOfWork) ProductImages() repositories.ProductImageRepository {
	return u.productImages
}
func (u *MemoryUnitOfWork) Cart() repositories.CartRepository { return u.cart }

func (u *MemoryUnitOfWork) guard() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repositories.ErrClosed
	}
	return nil
}

func (u *MemoryUnitOfWork) staged() []repositories.Staged {
	return []repositories.Staged{u.users, u.products, u.images, u.productImages, u.cart}
}

// Commit applies every staged write to the store or, on a constraint
// violation, discards all of them.
func (u *MemoryUnitOfWork) Commit(ctx context.Context) error {
	if err := u.guard(); err != nil {
		return err
	}
	if err := u.store.Commit(u.staged()...); err != nil {
		u.discard()
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback discards every staged write.
func (u *MemoryUnitOfWork) Rollback(ctx context.Context) error {
	if err := u.guard(); err != nil {
		return err
	}
	u.discard()
	return nil
}

// Close discards staged writes and invalidates the repositories.
func (u *MemoryUnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true
	u.discard()
	return nil
}

func (u *MemoryUnitOfWork) discard() {
	for _, s := range u.staged() {
		s.Discard()
	}
}

package uow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"market/internal/models"
	"market/internal/repositories"
)

// GORMFactory opens units of work backed by GORM transactions.
type GORMFactory struct {
	db *gorm.DB
}

// NewGORMFactory creates a factory over db.
func NewGORMFactory(db *gorm.DB) *GORMFactory {
	return &GORMFactory{db: db}
}

// Begin starts a transaction and binds the repositories to it.
func (f *GORMFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	u := &GORMUnitOfWork{db: f.db.WithContext(ctx)}
	if err := u.begin(); err != nil {
		return nil, err
	}

	conn := u.conn
	u.users = repositories.NewGORMRepository[models.User](repositories.KindUser, "created_at", conn)
	u.products = repositories.NewGORMRepository[models.Product](repositories.KindProduct, "added", conn)
	u.images = repositories.NewGORMRepository[models.Image](repositories.KindImage, "created_at", conn)
	u.productImages = repositories.NewGORMRepository[models.ProductImage](repositories.KindProductImage, "created_at", conn)
	u.cart = repositories.NewGORMRepository[models.CartItem](repositories.KindCartItem, "created_at", conn)
	return u, nil
}

// GORMUnitOfWork is a UnitOfWork over a GORM transaction.
type GORMUnitOfWork struct {
	mu     sync.Mutex
	db     *gorm.DB
	tx     *gorm.DB
	closed bool

	users         repositories.UserRepository
	products      repositories.ProductRepository
	images        repositories.ImageRepository
	productImages repositories.ProductImageRepository
	cart          repositories.CartRepository
}

func (u *GORMUnitOfWork) Users() repositories.UserRepository                 { return u.users }
func (u *GORMUnitOfWork) Products() repositories.ProductRepository           { return u.products }
func (u *GORMUnitOfWork) Images() repositories.ImageRepository               { return u.images }
func (u *GORMUnitOfWork) ProductImages() repositories.ProductImageRepository { return u.productImages }
func (u *GORMUnitOfWork) Cart() repositories.CartRepository                  { return u.cart }

func (u *GORMUnitOfWork) begin() error {
	tx := u.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	u.tx = tx
	return nil
}

func (u *GORMUnitOfWork) conn() (*gorm.DB, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil, repositories.ErrClosed
	}
	return u.tx, nil
}

// Commit commits the current transaction and opens the next one.
func (u *GORMUnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repositories.ErrClosed
	}

	if err := u.tx.Commit().Error; err != nil {
		u.tx.Rollback()
		if beginErr := u.begin(); beginErr != nil {
			return errors.Join(fmt.Errorf("failed to commit: %w", repositories.TranslateError(err)), beginErr)
		}
		return fmt.Errorf("failed to commit: %w", repositories.TranslateError(err))
	}
	return u.begin()
}

// Rollback aborts the current transaction and opens the next one.
func (u *GORMUnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return repositories.ErrClosed
	}

	if err := u.tx.Rollback().Error; err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return u.begin()
}

// Close rolls back the open transaction. Calling Close twice is a no-op.
func (u *GORMUnitOfWork) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil
	}
	u.closed = true

	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, gorm.ErrInvalidTransaction) {
		return fmt.Errorf("failed to release transaction: %w", err)
	}
	return nil
}

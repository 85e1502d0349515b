package repositories

import (
	"context"
	"time"

	"market/internal/models"
)

// Entity is implemented by every persisted model.
type Entity interface {
	EntityID() string
	Field(column string) (any, bool)
}

// Filter is an exact-match conjunction of column/value pairs. An empty
// filter matches every row.
type Filter map[string]any

// Repository defines data access for one entity kind. Writes are staged in
// the owning unit of work and only become visible to other units after it
// commits.
type Repository[T Entity] interface {
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, filter Filter) ([]T, error)
	Add(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, entity *T) error
}

type (
	UserRepository         = Repository[models.User]
	ProductRepository      = Repository[models.Product]
	ImageRepository        = Repository[models.Image]
	ProductImageRepository = Repository[models.ProductImage]
	CartRepository         = Repository[models.CartItem]
)

// Entity kinds, used in error messages and as memory table names.
const (
	KindUser         = "user"
	KindProduct      = "product"
	KindImage        = "image"
	KindProductImage = "product image"
	KindCartItem     = "cart item"
)

// toucher is implemented by entities carrying server-assigned timestamps.
type toucher interface {
	Touch(now time.Time)
}

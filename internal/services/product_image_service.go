package services

import (
	"context"

	"github.com/google/uuid"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/uow"
)

// ProductImageService links uploaded images to products.
type ProductImageService struct{}

// NewProductImageService creates a new ProductImageService.
func NewProductImageService() *ProductImageService {
	return &ProductImageService{}
}

// ListProductImages returns the image links of one product.
func (s *ProductImageService) ListProductImages(ctx context.Context, unit uow.UnitOfWork, productID string) ([]models.ProductImage, error) {
	return unit.ProductImages().List(ctx, repositories.Filter{"product_id": productID})
}

// GetProductImage retrieves a single link by its ID.
func (s *ProductImageService) GetProductImage(ctx context.Context, unit uow.UnitOfWork, id string) (*models.ProductImage, error) {
	return unit.ProductImages().Get(ctx, id)
}

// CreateProductImage links an existing image to a product owned by actor.
// An image may back only one link; the check here is an early answer and
// the unique image_id index is the real guard.
func (s *ProductImageService) CreateProductImage(ctx context.Context, unit uow.UnitOfWork, actor *models.User, productID, imageID string) (*models.ProductImage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product, err := unit.Products().Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, product.OwnerID); err != nil {
		return nil, err
	}
	image, err := unit.Images().Get(ctx, imageID)
	if err != nil {
		return nil, err
	}

	linked, err := unit.ProductImages().List(ctx, repositories.Filter{"image_id": image.ID})
	if err != nil {
		return nil, err
	}
	if len(linked) > 0 {
		return nil, ErrImageAlreadyLinked
	}

	link := &models.ProductImage{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		ImageID:   image.ID,
	}
	if _, err := unit.ProductImages().Add(ctx, link); err != nil {
		return nil, asCollision(err, ErrImageAlreadyLinked)
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, asCollision(err, ErrImageAlreadyLinked)
	}
	return link, nil
}

// DeleteProductImage removes a link of a product owned by actor.
func (s *ProductImageService) DeleteProductImage(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	link, err := unit.ProductImages().Get(ctx, id)
	if err != nil {
		return err
	}
	product, err := unit.Products().Get(ctx, link.ProductID)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, product.OwnerID); err != nil {
		return err
	}

	if err := unit.ProductImages().Delete(ctx, link); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

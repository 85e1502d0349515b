package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/uow"
)

// ProductInput is the full set of fields a product is created or replaced
// with.
type ProductInput struct {
	Title       string
	Description string
	Stock       int
	Price       float64
	IsActive    bool
}

// Patch returns a patch that sets every field of the input.
func (in ProductInput) Patch() models.ProductPatch {
	return models.ProductPatch{
		Title:       &in.Title,
		Description: &in.Description,
		Stock:       &in.Stock,
		Price:       &in.Price,
		IsActive:    &in.IsActive,
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	events EventPublisher
}

// NewProductService creates a new ProductService. events may be nil.
func NewProductService(events EventPublisher) *ProductService {
	return &ProductService{events: events}
}

// ListProducts retrieves all products.
func (s *ProductService) ListProducts(ctx context.Context, unit uow.UnitOfWork) ([]models.Product, error) {
	return unit.Products().List(ctx, nil)
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, unit uow.UnitOfWork, id string) (*models.Product, error) {
	return unit.Products().Get(ctx, id)
}

// CreateProduct creates a product owned by actor and commits it.
func (s *ProductService) CreateProduct(ctx context.Context, unit uow.UnitOfWork, actor *models.User, in ProductInput) (*models.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product := &models.Product{ID: uuid.New().String(), OwnerID: actor.ID}
	product.Apply(in.Patch())

	if _, err := unit.Products().Add(ctx, product); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventProductCreated, product.ID, actor.ID)
	return product, nil
}

// ReplaceProduct overwrites every mutable field of a product owned by actor.
func (s *ProductService) ReplaceProduct(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string, in ProductInput) (*models.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	product, err := unit.Products().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, product.OwnerID); err != nil {
		return nil, err
	}

	product.Apply(in.Patch())
	if _, err := unit.Products().Update(ctx, product); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	publish(ctx, s.events, EventProductUpdated, product.ID, actor.ID)
	return product, nil
}

// DeleteProduct removes a product owned by actor together with its image
// links and the cart lines referring to it.
func (s *ProductService) DeleteProduct(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	product, err := unit.Products().Get(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, product.OwnerID); err != nil {
		return err
	}

	links, err := unit.ProductImages().List(ctx, repositories.Filter{"product_id": product.ID})
	if err != nil {
		return err
	}
	for i := range links {
		if err := unit.ProductImages().Delete(ctx, &links[i]); err != nil {
			return fmt.Errorf("failed to unlink image %s: %w", links[i].ImageID, err)
		}
	}
	lines, err := unit.Cart().List(ctx, repositories.Filter{"product_id": product.ID})
	if err != nil {
		return err
	}
	for i := range lines {
		if err := unit.Cart().Delete(ctx, &lines[i]); err != nil {
			return fmt.Errorf("failed to remove cart item %s: %w", lines[i].ID, err)
		}
	}

	if err := unit.Products().Delete(ctx, product); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	publish(ctx, s.events, EventProductDeleted, product.ID, actor.ID)
	return nil
}

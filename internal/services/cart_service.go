package services

import (
	"context"

	"github.com/google/uuid"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/uow"
)

// CartItemInput is the full set of fields a cart line is created or
// replaced with.
type CartItemInput struct {
	ProductID string
	Amount    int
}

// CartService manages the private cart of each user.
type CartService struct {
	events EventPublisher
}

// NewCartService creates a new CartService. events may be nil.
func NewCartService(events EventPublisher) *CartService {
	return &CartService{events: events}
}

// ListCartItems returns the lines of the actor's cart.
func (s *CartService) ListCartItems(ctx context.Context, unit uow.UnitOfWork, actor *models.User) ([]models.CartItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return unit.Cart().List(ctx, repositories.Filter{"user_id": actor.ID})
}

// GetCartItem returns one line of the actor's cart.
func (s *CartService) GetCartItem(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string) (*models.CartItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	item, err := unit.Cart().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, item.UserID); err != nil {
		return nil, err
	}
	return item, nil
}

// AddCartItem puts a product into the actor's cart. A second line for the
// same product is rejected, not merged. The lookup below only answers
// early; the unique (user_id, product_id) index decides under concurrency.
func (s *CartService) AddCartItem(ctx context.Context, unit uow.UnitOfWork, actor *models.User, in CartItemInput) (*models.CartItem, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := unit.Products().Get(ctx, in.ProductID); err != nil {
		return nil, err
	}

	colliding, err := unit.Cart().List(ctx, repositories.Filter{
		"user_id":    actor.ID,
		"product_id": in.ProductID,
	})
	if err != nil {
		return nil, err
	}
	if len(colliding) > 0 {
		return nil, ErrCartCollision
	}

	item := &models.CartItem{
		ID:        uuid.New().String(),
		UserID:    actor.ID,
		ProductID: in.ProductID,
		Amount:    in.Amount,
	}
	if _, err := unit.Cart().Add(ctx, item); err != nil {
		return nil, asCollision(err, ErrCartCollision)
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, asCollision(err, ErrCartCollision)
	}
	publish(ctx, s.events, EventCartItemAdded, item.ID, actor.ID)
	return item, nil
}

// ReplaceCartItem overwrites product and amount of a line in the actor's
// cart.
func (s *CartService) ReplaceCartItem(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string, in CartItemInput) (*models.CartItem, error) {
	item, err := s.GetCartItem(ctx, unit, actor, id)
	if err != nil {
		return nil, err
	}
	if in.ProductID != item.ProductID {
		if _, err := unit.Products().Get(ctx, in.ProductID); err != nil {
			return nil, err
		}
	}

	item.Apply(models.CartItemPatch{ProductID: &in.ProductID, Amount: &in.Amount})
	if _, err := unit.Cart().Update(ctx, item); err != nil {
		return nil, asCollision(err, ErrCartCollision)
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, asCollision(err, ErrCartCollision)
	}
	return item, nil
}

// DeleteCartItem removes a line from the actor's cart.
func (s *CartService) DeleteCartItem(ctx context.Context, unit uow.UnitOfWork, actor *models.User, id string) error {
	item, err := s.GetCartItem(ctx, unit, actor, id)
	if err != nil {
		return err
	}
	if err := unit.Cart().Delete(ctx, item); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/services"
	"market/internal/storage"
	"market/internal/uow"
	"market/internal/uow/uowtest"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event services.Event) error {
	return m.Called(event.Type, event.EntityID, event.ActorID).Error(0)
}

func eraserInput(stock int) services.ProductInput {
	return services.ProductInput{
		Title:       "Eraser 01",
		Description: "soft",
		Stock:       stock,
		Price:       3,
		IsActive:    true,
	}
}

type marketFixture struct {
	factory uow.Factory
	alice   *models.User
	bob     *models.User
}

func newMarketFixture(t *testing.T, factory uow.Factory) marketFixture {
	t.Helper()
	auth := newTestAuth(t)
	return marketFixture{
		factory: factory,
		alice:   registerUser(t, factory, auth, "alice-id", "alice1234", "password1"),
		bob:     registerUser(t, factory, auth, "bob-id", "bob12345", "password2"),
	}
}

func TestProductService_CreateAndList(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		events := new(mockPublisher)
		events.On("Publish", services.EventProductCreated, mock.Anything, f.alice.ID).Return(nil).Once()
		service := services.NewProductService(events)

		product, err := service.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		assert.Equal(t, f.alice.ID, product.OwnerID)
		assert.False(t, product.Added.IsZero())
		assert.False(t, product.LastUpdated.Before(product.Added))

		products, err := service.ListProducts(ctx, openUnit(t, f.factory))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, product.ID, products[0].ID)
		events.AssertExpectations(t)
	})
}

func TestProductService_CreateRequiresActor(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		f := newMarketFixture(t, factory)
		service := services.NewProductService(nil)

		_, err := service.CreateProduct(context.Background(), openUnit(t, f.factory), nil, eraserInput(5))
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})
}

func TestProductService_OnlyOwnerMayReplace(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		service := services.NewProductService(nil)
		product, err := service.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)

		_, err = service.ReplaceProduct(ctx, openUnit(t, f.factory), f.bob, product.ID, eraserInput(0))
		assert.ErrorIs(t, err, services.ErrForbidden)

		stored, err := service.GetProduct(ctx, openUnit(t, f.factory), product.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, stored.Stock)

		replaced, err := service.ReplaceProduct(ctx, openUnit(t, f.factory), f.alice, product.ID, eraserInput(7))
		require.NoError(t, err)
		assert.Equal(t, 7, replaced.Stock)
		assert.True(t, product.Added.Equal(replaced.Added))
		assert.False(t, replaced.LastUpdated.Before(product.LastUpdated))
	})
}

func TestProductService_ReplaceMissingProduct(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		f := newMarketFixture(t, factory)
		service := services.NewProductService(nil)

		_, err := service.ReplaceProduct(context.Background(), openUnit(t, f.factory), f.alice, "missing", eraserInput(1))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductService_DeleteCascades(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		links := services.NewProductImageService()
		cart := services.NewCartService(nil)

		product, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		unit := openUnit(t, f.factory)
		_, err = unit.Images().Add(ctx, &models.Image{ID: "img-1", Image: "eraser.png"})
		require.NoError(t, err)
		require.NoError(t, unit.Commit(ctx))
		_, err = links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, product.ID, "img-1")
		require.NoError(t, err)
		_, err = cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: product.ID, Amount: 2})
		require.NoError(t, err)

		err = products.DeleteProduct(ctx, openUnit(t, f.factory), f.bob, product.ID)
		assert.ErrorIs(t, err, services.ErrForbidden)

		require.NoError(t, products.DeleteProduct(ctx, openUnit(t, f.factory), f.alice, product.ID))

		check := openUnit(t, f.factory)
		_, err = check.Products().Get(ctx, product.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		remaining, err := check.ProductImages().List(ctx, repositories.Filter{"product_id": product.ID})
		require.NoError(t, err)
		assert.Empty(t, remaining)
		lines, err := check.Cart().List(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, lines)
		_, err = check.Images().Get(ctx, "img-1")
		assert.NoError(t, err, "the image itself survives")
	})
}

func TestProductService_PublishFailureDoesNotFailRequest(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		f := newMarketFixture(t, factory)
		events := new(mockPublisher)
		events.On("Publish", services.EventProductCreated, mock.Anything, f.alice.ID).Return(errors.New("broker down"))
		service := services.NewProductService(events)

		product, err := service.CreateProduct(context.Background(), openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		assert.NotEmpty(t, product.ID)
		events.AssertExpectations(t)
	})
}

func TestProductImageService_ImageLinkedOnce(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		links := services.NewProductImageService()

		first, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		second, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(3))
		require.NoError(t, err)
		unit := openUnit(t, f.factory)
		_, err = unit.Images().Add(ctx, &models.Image{ID: "img-1", Image: "eraser.png"})
		require.NoError(t, err)
		require.NoError(t, unit.Commit(ctx))

		link, err := links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, first.ID, "img-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, link.ProductID)

		_, err = links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, second.ID, "img-1")
		assert.ErrorIs(t, err, services.ErrImageAlreadyLinked)

		listed, err := links.ListProductImages(ctx, openUnit(t, f.factory), first.ID)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
		listed, err = links.ListProductImages(ctx, openUnit(t, f.factory), second.ID)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}

func TestProductImageService_OwnerChecks(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		links := services.NewProductImageService()

		product, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		unit := openUnit(t, f.factory)
		_, err = unit.Images().Add(ctx, &models.Image{ID: "img-1", Image: "eraser.png"})
		require.NoError(t, err)
		require.NoError(t, unit.Commit(ctx))

		_, err = links.CreateProductImage(ctx, openUnit(t, f.factory), f.bob, product.ID, "img-1")
		assert.ErrorIs(t, err, services.ErrForbidden)
		_, err = links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, product.ID, "missing")
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		link, err := links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, product.ID, "img-1")
		require.NoError(t, err)

		err = links.DeleteProductImage(ctx, openUnit(t, f.factory), f.bob, link.ID)
		assert.ErrorIs(t, err, services.ErrForbidden)
		require.NoError(t, links.DeleteProductImage(ctx, openUnit(t, f.factory), f.alice, link.ID))

		_, err = links.GetProductImage(ctx, openUnit(t, f.factory), link.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestCartService_Lifecycle(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		events := new(mockPublisher)
		events.On("Publish", services.EventCartItemAdded, mock.Anything, f.bob.ID).Return(nil).Once()
		cart := services.NewCartService(events)

		eraser, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		pencil, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(9))
		require.NoError(t, err)

		item, err := cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: eraser.ID, Amount: 2})
		require.NoError(t, err)
		assert.Equal(t, f.bob.ID, item.UserID)

		_, err = cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: eraser.ID, Amount: 1})
		assert.ErrorIs(t, err, services.ErrCartCollision)

		_, err = cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: "missing", Amount: 1})
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		own, err := cart.ListCartItems(ctx, openUnit(t, f.factory), f.bob)
		require.NoError(t, err)
		assert.Len(t, own, 1)
		others, err := cart.ListCartItems(ctx, openUnit(t, f.factory), f.alice)
		require.NoError(t, err)
		assert.Empty(t, others)

		_, err = cart.GetCartItem(ctx, openUnit(t, f.factory), f.alice, item.ID)
		assert.ErrorIs(t, err, services.ErrForbidden)
		_, err = cart.ReplaceCartItem(ctx, openUnit(t, f.factory), f.alice, item.ID, services.CartItemInput{ProductID: eraser.ID, Amount: 9})
		assert.ErrorIs(t, err, services.ErrForbidden)

		replaced, err := cart.ReplaceCartItem(ctx, openUnit(t, f.factory), f.bob, item.ID, services.CartItemInput{ProductID: pencil.ID, Amount: 4})
		require.NoError(t, err)
		assert.Equal(t, pencil.ID, replaced.ProductID)
		assert.Equal(t, 4, replaced.Amount)

		assert.ErrorIs(t, cart.DeleteCartItem(ctx, openUnit(t, f.factory), f.alice, item.ID), services.ErrForbidden)
		require.NoError(t, cart.DeleteCartItem(ctx, openUnit(t, f.factory), f.bob, item.ID))
		_, err = cart.GetCartItem(ctx, openUnit(t, f.factory), f.bob, item.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		events.AssertExpectations(t)
	})
}

// Memory units stage inserts until commit, so both pass the early checks.
func TestCartService_ConcurrentAddRejectedAtCommit(t *testing.T) {
	ctx := context.Background()
	f := newMarketFixture(t, newMemoryFactory())
	product, err := services.NewProductService(nil).CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
	require.NoError(t, err)

	first := openUnit(t, f.factory)
	second := openUnit(t, f.factory)
	for i, unit := range []uow.UnitOfWork{first, second} {
		_, err := unit.Cart().Add(ctx, &models.CartItem{
			ID:        fmt.Sprintf("line-%d", i),
			UserID:    f.bob.ID,
			ProductID: product.ID,
			Amount:    1,
		})
		require.NoError(t, err)
	}

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), repositories.ErrAlreadyExists)
}

func TestCartService_ReplaceOntoTakenProduct(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		cart := services.NewCartService(nil)

		eraser, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		pencil, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(9))
		require.NoError(t, err)
		first, err := cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: eraser.ID, Amount: 1})
		require.NoError(t, err)
		_, err = cart.AddCartItem(ctx, openUnit(t, f.factory), f.bob, services.CartItemInput{ProductID: pencil.ID, Amount: 1})
		require.NoError(t, err)

		// Replace has no early check, so the unique index reports this one.
		// The unit is closed at once to release the SQLite write lock.
		unit, err := f.factory.Begin(ctx)
		require.NoError(t, err)
		_, err = cart.ReplaceCartItem(ctx, unit, f.bob, first.ID, services.CartItemInput{ProductID: pencil.ID, Amount: 3})
		require.NoError(t, unit.Close())
		assert.ErrorIs(t, err, services.ErrCartCollision)

		stored, err := cart.GetCartItem(ctx, openUnit(t, f.factory), f.bob, first.ID)
		require.NoError(t, err)
		assert.Equal(t, eraser.ID, stored.ProductID)
		assert.Equal(t, 1, stored.Amount)
	})
}

func TestProductImageService_StoreRejectsSecondLink(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		products := services.NewProductService(nil)
		links := services.NewProductImageService()

		product, err := products.CreateProduct(ctx, openUnit(t, f.factory), f.alice, eraserInput(5))
		require.NoError(t, err)
		seed := openUnit(t, f.factory)
		_, err = seed.Images().Add(ctx, &models.Image{ID: "img-1", Image: "eraser.png"})
		require.NoError(t, err)
		require.NoError(t, seed.Commit(ctx))
		_, err = links.CreateProductImage(ctx, openUnit(t, f.factory), f.alice, product.ID, "img-1")
		require.NoError(t, err)

		unit, err := f.factory.Begin(ctx)
		require.NoError(t, err)
		_, err = unit.ProductImages().Add(ctx, &models.ProductImage{ID: "link-2", ProductID: product.ID, ImageID: "img-1"})
		if err == nil {
			err = unit.Commit(ctx)
		}
		require.NoError(t, unit.Close())
		assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

		listed, err := links.ListProductImages(ctx, openUnit(t, f.factory), product.ID)
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})
}

func TestUserService_UpdateUser(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		service := services.NewUserService()

		name := "Alice Liddell"
		updated, err := service.UpdateUser(ctx, openUnit(t, f.factory), f.alice, models.UserPatch{FullName: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.FullName)

		stored, err := openUnit(t, f.factory).Users().Get(ctx, f.alice.ID)
		require.NoError(t, err)
		assert.Equal(t, name, stored.FullName)
		assert.Equal(t, "alice1234", stored.Username)

		_, err = service.UpdateUser(ctx, openUnit(t, f.factory), nil, models.UserPatch{FullName: &name})
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})
}

func TestImageService_UploadAndGet(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		fs := afero.NewMemMapFs()
		media, err := storage.NewMediaStore(fs, "media")
		require.NoError(t, err)
		service := services.NewImageService(media)

		image, err := service.UploadImage(ctx, openUnit(t, f.factory), "eraser.png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.Equal(t, "eraser.png", image.Image)

		data, err := afero.ReadFile(fs, media.Path(image.Image))
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))

		got, err := service.GetImage(ctx, openUnit(t, f.factory), image.ID)
		require.NoError(t, err)
		assert.Equal(t, image.Image, got.Image)

		_, err = service.UploadImage(ctx, openUnit(t, f.factory), "", strings.NewReader("png"))
		assert.ErrorIs(t, err, storage.ErrNoFilename)
	})
}

func TestImageService_RemovesFileWhenCommitFails(t *testing.T) {
	uowtest.Each(t, func(t *testing.T, factory uow.Factory) {
		ctx := context.Background()
		f := newMarketFixture(t, factory)
		fs := afero.NewMemMapFs()
		media, err := storage.NewMediaStore(fs, "media")
		require.NoError(t, err)
		service := services.NewImageService(media)

		unit := openUnit(t, f.factory)
		require.NoError(t, unit.Close())

		_, err = service.UploadImage(ctx, unit, "eraser.png", strings.NewReader("png"))
		assert.ErrorIs(t, err, repositories.ErrClosed)

		exists, err := afero.Exists(fs, media.Path("eraser.png"))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

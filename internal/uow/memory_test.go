package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/models"
	"market/internal/repositories"
)

func newMemoryFactory() *MemoryFactory {
	return NewMemoryFactory(repositories.NewMemoryStore())
}

func begin(t *testing.T, factory Factory) UnitOfWork {
	t.Helper()
	unit, err := factory.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { unit.Close() })
	return unit
}

func TestMemoryUnitOfWork_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()

	writer := begin(t, factory)
	_, err := writer.Users().Add(ctx, &models.User{ID: "u1", Username: "alice1234"})
	require.NoError(t, err)

	own, err := writer.Users().Get(ctx, "u1")
	require.NoError(t, err, "a unit sees its own staged writes")
	assert.Equal(t, "alice1234", own.Username)

	reader := begin(t, factory)
	_, err = reader.Users().Get(ctx, "u1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, writer.Commit(ctx))
	committed, err := reader.Users().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice1234", committed.Username)
}

func TestMemoryUnitOfWork_Rollback(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	unit := begin(t, factory)

	_, err := unit.Products().Add(ctx, &models.Product{ID: "p1", Title: "Eraser 01", OwnerID: "u1"})
	require.NoError(t, err)
	require.NoError(t, unit.Rollback(ctx))

	_, err = unit.Products().Get(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	products, err := begin(t, factory).Products().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestMemoryUnitOfWork_CommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()

	seed := begin(t, factory)
	_, err := seed.Users().Add(ctx, &models.User{ID: "u1", Username: "alice1234"})
	require.NoError(t, err)
	require.NoError(t, seed.Commit(ctx))

	unit := begin(t, factory)
	_, err = unit.Products().Add(ctx, &models.Product{ID: "p1", Title: "Eraser 01", OwnerID: "u1"})
	require.NoError(t, err)
	_, err = unit.Users().Add(ctx, &models.User{ID: "u2", Username: "alice1234"})
	require.NoError(t, err)

	err = unit.Commit(ctx)
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	check := begin(t, factory)
	products, err := check.Products().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, products, "the product staged with the rejected user must not be kept")
	users, err := check.Users().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = unit.Products().Get(ctx, "p1")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "a failed commit leaves the unit rolled back")
}

func TestMemoryUnitOfWork_UnitUsableAfterCommit(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	unit := begin(t, factory)

	_, err := unit.Users().Add(ctx, &models.User{ID: "u1", Username: "alice1234"})
	require.NoError(t, err)
	require.NoError(t, unit.Commit(ctx))

	_, err = unit.Users().Add(ctx, &models.User{ID: "u2", Username: "bob12345"})
	require.NoError(t, err)
	require.NoError(t, unit.Commit(ctx))

	users, err := begin(t, factory).Users().List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
}

func TestMemoryUnitOfWork_ClosedUnitRejectsWork(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	unit := begin(t, factory)

	_, err := unit.Users().Add(ctx, &models.User{ID: "u1", Username: "alice1234"})
	require.NoError(t, err)
	require.NoError(t, unit.Close())
	require.NoError(t, unit.Close(), "closing twice is harmless")

	_, err = unit.Users().Get(ctx, "u1")
	assert.ErrorIs(t, err, repositories.ErrClosed)
	_, err = unit.Users().List(ctx, nil)
	assert.ErrorIs(t, err, repositories.ErrClosed)
	assert.ErrorIs(t, unit.Commit(ctx), repositories.ErrClosed)

	users, err := begin(t, factory).Users().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users, "uncommitted work is discarded on close")
}

func TestRun_ClosesOnEveryPath(t *testing.T) {
	ctx := context.Background()
	factory := newMemoryFactory()
	boom := errors.New("boom")

	var leaked UnitOfWork
	err := Run(ctx, factory, func(unit UnitOfWork) error {
		leaked = unit
		_, err := unit.Users().Add(ctx, &models.User{ID: "u1", Username: "alice1234"})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = leaked.Users().List(ctx, nil)
	assert.ErrorIs(t, err, repositories.ErrClosed)

	assert.Panics(t, func() {
		_ = Run(ctx, factory, func(unit UnitOfWork) error {
			leaked = unit
			panic("handler crashed")
		})
	})
	_, err = leaked.Users().List(ctx, nil)
	assert.ErrorIs(t, err, repositories.ErrClosed)

	users, err := begin(t, factory).Users().List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, Run(ctx, factory, func(unit UnitOfWork) error {
		if _, err := unit.Users().Add(ctx, &models.User{ID: "u2", Username: "bob12345"}); err != nil {
			return err
		}
		return unit.Commit(ctx)
	}))
	users, err = begin(t, factory).Users().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryUnitOfWork_RejectsDanglingReference(t *testing.T) {
	ctx := context.Background()
	unit := begin(t, newMemoryFactory())

	_, err := unit.Cart().Add(ctx, &models.CartItem{ID: "c1", UserID: "ghost-user", ProductID: "ghost-product", Amount: 1})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Commit(ctx), repositories.ErrInvalidReference)

	_, err = unit.Cart().Get(ctx, "c1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

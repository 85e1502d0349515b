package middleware

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market/internal/uow"
)

// stickyUnit is a unit whose session cannot be released.
type stickyUnit struct {
	uow.UnitOfWork
	closed int
}

func (u *stickyUnit) Close() error {
	u.closed++
	return errors.New("connection reset by peer")
}

type stickyFactory struct {
	unit *stickyUnit
}

func (f stickyFactory) Begin(ctx context.Context) (uow.UnitOfWork, error) {
	return f.unit, nil
}

func TestUnitOfWork_LogsCloseError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	unit := &stickyUnit{}
	app := fiber.New()
	app.Use(UnitOfWork(stickyFactory{unit: unit}))
	app.Get("/ping", func(c *fiber.Ctx) error {
		assert.Same(t, unit, CurrentUnit(c))
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, unit.closed)
	assert.Contains(t, buf.String(), "Error closing unit of work for GET /ping: connection reset by peer")
}

func TestUnitOfWork_ClosesAfterHandlerError(t *testing.T) {
	unit := &stickyUnit{}
	app := fiber.New()
	app.Use(UnitOfWork(stickyFactory{unit: unit}))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.ErrTeapot
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, 1, unit.closed)
}

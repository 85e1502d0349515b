package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"market/internal/uow"
)

const unitKey = "unit_of_work"

// UnitOfWork opens one unit of work per request and closes it when the
// handler chain returns or panics. Work the handlers did not commit is
// rolled back.
func UnitOfWork(factory uow.Factory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		unit, err := factory.Begin(c.UserContext())
		if err != nil {
			return err
		}
		defer func() {
			if err := unit.Close(); err != nil {
				log.Printf("Error closing unit of work for %s %s: %v", c.Method(), c.Path(), err)
			}
		}()

		c.Locals(unitKey, unit)
		return c.Next()
	}
}

// CurrentUnit returns the unit of work opened for the request.
func CurrentUnit(c *fiber.Ctx) uow.UnitOfWork {
	unit, _ := c.Locals(unitKey).(uow.UnitOfWork)
	return unit
}

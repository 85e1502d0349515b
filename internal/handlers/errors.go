package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"market/internal/repositories"
	"market/internal/services"
	"market/internal/storage"
)

// ValidationError reports malformed input.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = validator.New()

// bind parses the request body into out and validates it. Failures are
// reported with status 422.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &ValidationError{
			Status:  fiber.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Invalid request body: %v", err),
		}
	}
	return check(out, fiber.StatusUnprocessableEntity)
}

func check(in any, status int) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Status: status, Message: "Validation failed", Fields: fields}
}

// ErrorHandler maps service and repository errors onto HTTP responses.
// Anything unrecognised is logged and answered with a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		body := fiber.Map{"detail": validationErr.Message}
		if len(validationErr.Fields) > 0 {
			body["errors"] = validationErr.Fields
		}
		return c.Status(validationErr.Status).JSON(body)
	case errors.As(err, &fiberErr):
		return detail(c, fiberErr.Code, fiberErr.Message)
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrInvalidToken):
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return detail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return detail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		return detail(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, repositories.ErrAlreadyExists):
		return detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNoFilename):
		return detail(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	log.Printf("Failed to execute: %s %s. Error: %v", c.Method(), c.OriginalURL(), err)
	return detail(c, fiber.StatusInternalServerError, "Server error")
}

func detail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"detail": message})
}

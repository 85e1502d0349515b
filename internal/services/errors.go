package services

import (
	"errors"
	"fmt"

	"market/internal/repositories"
)

var (
	// ErrUnauthorized is returned when an operation needs an identity and
	// none was resolved.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrInvalidToken is returned when a bearer token fails signature or
	// expiry verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the acting user does not own the resource.
	ErrForbidden = errors.New("not the owner of this resource")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = fmt.Errorf("username is already taken: %w", repositories.ErrAlreadyExists)
	// ErrCartCollision is returned when a user already has a cart line for
	// the product.
	ErrCartCollision = fmt.Errorf("product is already in the cart: %w", repositories.ErrAlreadyExists)
	// ErrImageAlreadyLinked is returned when an image already backs a
	// product image.
	ErrImageAlreadyLinked = fmt.Errorf("image is already linked to a product: %w", repositories.ErrAlreadyExists)
)

// asCollision replaces a store-level uniqueness failure with the domain
// error callers expect. Other errors pass through.
func asCollision(err, collision error) error {
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return fmt.Errorf("%w (%v)", collision, err)
	}
	return err
}

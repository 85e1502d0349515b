package handlers

import (
	"github.com/gofiber/fiber/v2"

	"market/internal/middleware"
	"market/internal/models"
	"market/internal/services"
)

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/user", auth)
	userRoutes.Get("/", h.HandleGetUser)
	userRoutes.Put("/", h.HandlePutUser)
}

// UserUpdateRequest is the body of PUT /user.
type UserUpdateRequest struct {
	FullName *string `json:"full_name" validate:"required,max=255"`
}

// HandleGetUser returns the authorized user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}

// HandlePutUser edits the authorized user's information.
func (h *UserHandler) HandlePutUser(c *fiber.Ctx) error {
	var req UserUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), models.UserPatch{
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}
	return c.JSON(user)
}

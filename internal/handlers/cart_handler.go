package handlers

import (
	"github.com/gofiber/fiber/v2"

	"market/internal/middleware"
	"market/internal/services"
)

// CartHandler serves the authorized user's cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes, all behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Get("/", h.HandleGetCartItems)
	cartRoutes.Post("/", h.HandleAddCartItem)
	cartRoutes.Get("/:id", h.HandleGetCartItem)
	cartRoutes.Put("/:id", h.HandlePutCartItem)
	cartRoutes.Delete("/:id", h.HandleDeleteCartItem)
}

// CartItemRequest is the body of cart line creation and replacement.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Amount    int    `json:"amount" validate:"required,gt=0"`
}

func (r CartItemRequest) input() services.CartItemInput {
	return services.CartItemInput{ProductID: r.ProductID, Amount: r.Amount}
}

// HandleGetCartItems lists the cart.
func (h *CartHandler) HandleGetCartItems(c *fiber.Ctx) error {
	items, err := h.service.ListCartItems(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// HandleAddCartItem adds a product to the cart.
func (h *CartHandler) HandleAddCartItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.AddCartItem(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleGetCartItem returns one cart line.
func (h *CartHandler) HandleGetCartItem(c *fiber.Ctx) error {
	item, err := h.service.GetCartItem(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandlePutCartItem replaces a cart line.
func (h *CartHandler) HandlePutCartItem(c *fiber.Ctx) error {
	var req CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.ReplaceCartItem(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// HandleDeleteCartItem removes a cart line.
func (h *CartHandler) HandleDeleteCartItem(c *fiber.Ctx) error {
	if err := h.service.DeleteCartItem(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

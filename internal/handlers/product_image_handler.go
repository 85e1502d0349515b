package handlers

import (
	"github.com/gofiber/fiber/v2"

	"market/internal/middleware"
	"market/internal/services"
)

// ProductImageHandler handles links between products and images.
type ProductImageHandler struct {
	service *services.ProductImageService
}

// NewProductImageHandler creates a new ProductImageHandler.
func NewProductImageHandler(service *services.ProductImageService) *ProductImageHandler {
	return &ProductImageHandler{service: service}
}

// RegisterRoutes registers the product image routes.
func (h *ProductImageHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	linkRoutes := router.Group("/productimages")
	linkRoutes.Get("/", h.HandleGetProductImages)
	linkRoutes.Post("/", auth, h.HandleCreateProductImage)
	linkRoutes.Get("/:id", h.HandleGetProductImage)
	linkRoutes.Delete("/:id", auth, h.HandleDeleteProductImage)
}

// ProductImageListQuery filters GET /productimages.
type ProductImageListQuery struct {
	ProductID string `query:"product_id" validate:"required"`
}

// ProductImageRequest is the body of POST /productimages.
type ProductImageRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	ImageID   string `json:"image_id" validate:"required,uuid"`
}

// HandleGetProductImages lists the images of one product.
func (h *ProductImageHandler) HandleGetProductImages(c *fiber.Ctx) error {
	var query ProductImageListQuery
	if err := c.QueryParser(&query); err != nil {
		return &ValidationError{Status: fiber.StatusUnprocessableEntity, Message: "Invalid query"}
	}
	if err := check(query, fiber.StatusUnprocessableEntity); err != nil {
		return err
	}

	links, err := h.service.ListProductImages(c.UserContext(), middleware.CurrentUnit(c), query.ProductID)
	if err != nil {
		return err
	}
	return c.JSON(links)
}

// HandleCreateProductImage links an image to a product of the authorized
// user.
func (h *ProductImageHandler) HandleCreateProductImage(c *fiber.Ctx) error {
	var req ProductImageRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	link, err := h.service.CreateProductImage(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), req.ProductID, req.ImageID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// HandleGetProductImage returns one link.
func (h *ProductImageHandler) HandleGetProductImage(c *fiber.Ctx) error {
	link, err := h.service.GetProductImage(c.UserContext(), middleware.CurrentUnit(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(link)
}

// HandleDeleteProductImage removes a link of the authorized user's product.
func (h *ProductImageHandler) HandleDeleteProductImage(c *fiber.Ctx) error {
	if err := h.service.DeleteProductImage(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"market/internal/middleware"
	"market/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes. Reads are public; writes go
// through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Post("/", auth, h.HandleCreateProduct)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", auth, h.HandlePutProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
}

// ProductRequest is the body of product creation and replacement.
type ProductRequest struct {
	Title       string   `json:"title" validate:"required,min=8,max=255"`
	Description string   `json:"description"`
	Stock       *int     `json:"stock" validate:"required,gte=0"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	IsActive    *bool    `json:"is_active"`
}

func (r ProductRequest) input() services.ProductInput {
	in := services.ProductInput{
		Title:       r.Title,
		Description: r.Description,
		Stock:       *r.Stock,
		Price:       *r.Price,
		IsActive:    true,
	}
	if r.IsActive != nil {
		in.IsActive = *r.IsActive
	}
	return in
}

// HandleGetProducts returns every product.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), middleware.CurrentUnit(c))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleCreateProduct adds a product owned by the authorized user.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleGetProduct returns one product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), middleware.CurrentUnit(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandlePutProduct replaces a product of the authorized user.
func (h *ProductHandler) HandlePutProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.service.ReplaceProduct(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product of the authorized user.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), middleware.CurrentUnit(c), middleware.CurrentUser(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

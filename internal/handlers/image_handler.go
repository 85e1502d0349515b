package handlers

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"market/internal/middleware"
	"market/internal/services"
)

// ImageHandler handles image uploads.
type ImageHandler struct {
	service *services.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(service *services.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// RegisterRoutes registers the image routes.
func (h *ImageHandler) RegisterRoutes(router fiber.Router) {
	imageRoutes := router.Group("/images")
	imageRoutes.Post("/", h.HandleUploadImage)
	imageRoutes.Get("/:id", h.HandleGetImage)
}

// RegisterMediaRoutes serves the stored files. They need no unit of work.
func (h *ImageHandler) RegisterMediaRoutes(router fiber.Router) {
	router.Get("/media/:name", h.HandleGetMedia)
}

// HandleUploadImage stores the multipart "image" file.
func (h *ImageHandler) HandleUploadImage(c *fiber.Ctx) error {
	header, err := c.FormFile("image")
	if err != nil {
		return &ValidationError{
			Status:  fiber.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Field 'image' is required: %v", err),
		}
	}
	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	image, err := h.service.UploadImage(c.UserContext(), middleware.CurrentUnit(c), header.Filename, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(image)
}

// HandleGetImage returns one image.
func (h *ImageHandler) HandleGetImage(c *fiber.Ctx) error {
	image, err := h.service.GetImage(c.UserContext(), middleware.CurrentUnit(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(image)
}

// HandleGetMedia streams one stored file.
func (h *ImageHandler) HandleGetMedia(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return fiber.ErrNotFound
	}
	file, err := h.service.OpenMedia(name)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat media file %s: %w", name, err)
	}
	c.Type(filepath.Ext(name))
	return c.SendStream(file, int(info.Size()))
}

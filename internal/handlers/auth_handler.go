package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"market/internal/middleware"
	"market/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth services.AuthProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth services.AuthProvider) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/token", h.HandleLogin)
	router.Post("/signup", h.HandleSignup)
}

// LoginRequest is the OAuth2 password form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SignupRequest is the signup form.
type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=8,max=150"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=255"`
	FullName string `json:"full_name" form:"full_name"`
}

// HandleLogin authenticates the user and issues a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	unit := middleware.CurrentUnit(c)
	token, err := h.auth.Service(unit.Users()).Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if token == nil {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return fiber.NewError(fiber.StatusUnauthorized, "Incorrect username or password")
	}
	return c.JSON(token)
}

// HandleSignup registers a user and logs them in.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return &ValidationError{Status: fiber.StatusUnprocessableEntity, Message: "Invalid request body"}
	}
	if err := check(req, fiber.StatusBadRequest); err != nil {
		return err
	}

	ctx := c.UserContext()
	unit := middleware.CurrentUnit(c)
	auth := h.auth.Service(unit.Users())

	if _, err := auth.RegisterUser(ctx, uuid.New().String(), req.Username, req.Password, req.FullName); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}

	token, err := auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	if token == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Server error")
	}
	return c.Status(fiber.StatusCreated).JSON(token)
}

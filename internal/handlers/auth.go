package handlers

import (
	"errors"

	"kobo/internal/models"
	"kobo/internal/services/auth"
	"kobo/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// extractUserClaims is a helper shared by the authenticated handlers.
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.Email == "" || input.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	user, err := h.authService.Register(c.Context(), input.Email, input.Name, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return response.Conflict(c, err.Error())
		}
		return response.ServerError(c, "Failed to register user")
	}

	return response.Created(c, "Registration successful, verify your account to receive wallets", fiber.Map{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var input struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	wallets, err := h.authService.Verify(c.Context(), input.UserID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, auth.ErrAlreadyVerified):
			return response.Conflict(c, err.Error())
		}
		return response.ServerError(c, "Failed to verify account")
	}

	return response.Success(c, "Account verified", fiber.Map{
		"wallets": wallets,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	user, token, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return response.Error(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, auth.ErrNotVerified):
			return response.Error(c, fiber.StatusForbidden, err.Error())
		}
		return response.ServerError(c, "Failed to log in")
	}

	return response.Success(c, "Login successful", fiber.Map{
		"user_id": user.ID,
		"token":   token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return response.Unauthorized(c)
	}

	if err := h.authService.Logout(claims.UserID); err != nil {
		return response.ServerError(c, "Failed to log out")
	}
	return response.Success(c, "Logged out", nil)
}

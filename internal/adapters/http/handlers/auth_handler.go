package handlers

import (
	"errors"
	"strings"

	"bookhaven/internal/adapters/http/middleware"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/password"
	"bookhaven/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles member registration
// @Summary Register new member
// @Description Register a new member account and open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" {
		return response.BadRequest(c, "Email is required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return response.BadRequest(c, "Username is required")
	}
	if !password.Acceptable(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}

	result, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			return response.Conflict(c, "Email or username already exists")
		default:
			return response.InternalServerError(c, "Failed to register user")
		}
	}

	return response.Created(c, "User registered successfully", result)
}

// Login handles user login
// @Summary Login
// @Description Authenticate and return token, session id, expiry and permission list
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Unauthorized(c, "Account is deactivated")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	return response.Success(c, "Login successful", result)
}

// Logout revokes the caller's session
// @Summary Logout
// @Description Revoke the session carried by the caller's token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.Logout(c.Context(), claims.SessionID); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the caller
// @Summary Logout everywhere
// @Description Revoke all live sessions for the caller
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.Context(), claims.UserID); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.Success(c, "All sessions revoked", nil)
}

// Me returns the caller's profile and effective permissions
// @Summary Current user
// @Description Return the caller's profile and permission list
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.Context(), claims.UserID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "", fiber.Map{
		"user":        user.ToResponse(),
		"permissions": claims.Permissions,
		"session_id":  claims.SessionID,
	})
}

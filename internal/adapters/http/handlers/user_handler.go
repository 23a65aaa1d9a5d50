package handlers

import (
	"errors"
	"strings"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/pagination"
	"bookhaven/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SetRoleRequest represents role assignment request body
type SetRoleRequest struct {
	Role string `json:"role"`
}

// List returns all users
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, total, err := h.userService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}

	return response.Success(c, "", fiber.Map{
		"users": out,
		"meta":  pagination.GetMeta(params, total),
	})
}

// Get returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	user, err := h.userService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	return response.Success(c, "", user.ToResponse())
}

// SetRole assigns a role to a user
// @Summary Set user role
// @Description Assign a role; all live sessions of the user are revoked
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetRoleRequest true "Role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/role [put]
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	role := domain.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if err := h.userService.SetRole(c.Context(), id, role); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Unknown role")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to set role")
		}
	}

	return response.Success(c, "Role updated", nil)
}

// Deactivate marks a user inactive
// @Summary Deactivate user
// @Description Deactivate the account and revoke all its sessions
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	if err := h.userService.Deactivate(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to deactivate user")
	}

	return response.Success(c, "User deactivated", nil)
}

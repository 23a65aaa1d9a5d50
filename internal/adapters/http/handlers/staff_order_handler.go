package handlers

import (
	"errors"
	"strings"

	"bookhaven/internal/adapters/http/middleware"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/pagination"
	"bookhaven/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StaffOrderHandler handles staff-facing fulfillment endpoints
type StaffOrderHandler struct {
	orderService *services.OrderService
}

// NewStaffOrderHandler creates a new staff order handler
func NewStaffOrderHandler(orderService *services.OrderService) *StaffOrderHandler {
	return &StaffOrderHandler{orderService: orderService}
}

// RedeemRequest represents claim code redemption request body
type RedeemRequest struct {
	ClaimCode string `json:"claim_code"`
}

// UpdateStatusRequest represents a forward status move request body
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// List returns orders in a given status
// @Summary List orders by status
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param status query string false "Order status" default(PENDING)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /staff/orders [get]
func (h *StaffOrderHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := domain.OrderStatus(strings.ToUpper(c.Query("status", string(domain.OrderPending))))

	orders, total, err := h.orderService.ListByStatus(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Unknown order status")
		}
		return response.InternalServerError(c, "Failed to list orders")
	}

	return response.Success(c, "", fiber.Map{
		"orders": ordersToResponses(orders, false),
		"meta":   pagination.GetMeta(params, total),
	})
}

// Get returns any order by id
// @Summary Get order
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /staff/orders/{id} [get]
func (h *StaffOrderHandler) Get(c *fiber.Ctx) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	order, err := h.orderService.Get(c.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return response.NotFound(c, "Order not found")
		}
		return response.InternalServerError(c, "Failed to load order")
	}

	return response.Success(c, "", order.ToResponse(false))
}

// Redeem releases an order against its claim code
// @Summary Redeem claim code
// @Description Complete an order after verifying the member's claim code
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body RedeemRequest true "Claim code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /staff/orders/{id}/redeem [post]
func (h *StaffOrderHandler) Redeem(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	var req RedeemRequest
	if err := c.BodyParser(&req); err != nil || req.ClaimCode == "" {
		return response.BadRequest(c, "Claim code is required")
	}

	order, err := h.orderService.Redeem(c.Context(), claims.UserID, orderID, req.ClaimCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Order is not redeemable in status "+h.currentStatus(c, orderID))
		case errors.Is(err, domain.ErrClaimCodeMismatch):
			// Deliberately generic: no hint about how the code failed
			return response.BadRequest(c, "Invalid claim code or order state")
		default:
			return response.InternalServerError(c, "Failed to redeem order")
		}
	}

	return response.Success(c, "Order completed", order.ToResponse(false))
}

// UpdateStatus moves an order strictly forward
// @Summary Update order status
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body UpdateStatusRequest true "Target status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /staff/orders/{id}/status [put]
func (h *StaffOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return response.BadRequest(c, "Target status is required")
	}

	next := domain.OrderStatus(strings.ToUpper(req.Status))
	order, err := h.orderService.UpdateStatus(c.Context(), claims.UserID, orderID, next)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Cannot move order to "+string(next)+" from "+h.currentStatus(c, orderID))
		default:
			return response.InternalServerError(c, "Failed to update order")
		}
	}

	return response.Success(c, "Order status updated", order.ToResponse(false))
}

// Cancel cancels any non-terminal order
// @Summary Cancel order
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /staff/orders/{id}/cancel [put]
func (h *StaffOrderHandler) Cancel(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	order, err := h.orderService.Cancel(c.Context(), claims.UserID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Order is already in a terminal state")
		default:
			return response.InternalServerError(c, "Failed to cancel order")
		}
	}

	return response.Success(c, "Order cancelled", order.ToResponse(false))
}

// currentStatus fetches the order's present status for conflict
// responses so the caller can reconcile
func (h *StaffOrderHandler) currentStatus(c *fiber.Ctx, orderID uint) string {
	order, err := h.orderService.Get(c.Context(), orderID)
	if err != nil {
		return "UNKNOWN"
	}
	return order.Status
}

package handlers

import (
	"errors"
	"strconv"

	"bookhaven/internal/adapters/http/middleware"
	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/core/services"
	"bookhaven/internal/pkg/pagination"
	"bookhaven/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles member-facing order endpoints
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceRequest represents order placement request body
type PlaceRequest struct {
	Items []services.PlaceItemInput `json:"items"`
}

// Place handles order placement
// @Summary Place order
// @Description Place an order; the response carries the claim code to present at pickup
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PlaceRequest true "Order items"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /orders [post]
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	var req PlaceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	order, err := h.orderService.Place(c.Context(), claims.UserID, &services.PlaceInput{Items: req.Items})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Order must contain at least one item with a positive quantity")
		case errors.Is(err, domain.ErrBookNotFound):
			return response.BadRequest(c, "One or more books are unavailable")
		default:
			return response.InternalServerError(c, "Failed to place order")
		}
	}

	// The claim code is shown once, to the owner, at placement
	return response.Created(c, "Order placed successfully", order.ToResponse(true))
}

// ListMine returns the caller's orders
// @Summary My orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /orders/my [get]
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	params := pagination.GetParams(c)

	orders, total, err := h.orderService.ListOwn(c.Context(), claims.UserID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list orders")
	}

	return response.Success(c, "", fiber.Map{
		"orders": ordersToResponses(orders, false),
		"meta":   pagination.GetMeta(params, total),
	})
}

// GetMine returns one of the caller's orders, claim code included
// @Summary My order by id
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /orders/my/{id} [get]
func (h *OrderHandler) GetMine(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	order, err := h.orderService.GetOwn(c.Context(), claims.UserID, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return response.NotFound(c, "Order not found")
		}
		return response.InternalServerError(c, "Failed to load order")
	}

	return response.Success(c, "", order.ToResponse(true))
}

// CancelMine cancels the caller's own pending order
// @Summary Cancel my order
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /orders/my/{id}/cancel [put]
func (h *OrderHandler) CancelMine(c *fiber.Ctx) error {
	claims := middleware.Claims(c)

	orderID, err := parseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid order id")
	}

	order, err := h.orderService.CancelOwn(c.Context(), claims.UserID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			return response.NotFound(c, "Order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			return response.Conflict(c, "Order can no longer be cancelled")
		default:
			return response.InternalServerError(c, "Failed to cancel order")
		}
	}

	return response.Success(c, "Order cancelled", order.ToResponse(false))
}

func ordersToResponses(orders []*models.Order, withCode bool) []*models.OrderResponse {
	out := make([]*models.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ToResponse(withCode))
	}
	return out
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

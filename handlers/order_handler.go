package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/selfdrive/rentals/middleware"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/repositories"
	"github.com/selfdrive/rentals/services"
	"github.com/selfdrive/rentals/utils"
	"go.uber.org/zap"
)

type OrderManager interface {
	Create(ctx context.Context, in services.CreateOrderInput) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, patch []byte, actor string) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetPublicStatus(ctx context.Context, ref string) (*services.PublicOrderStatus, error)
	List(ctx context.Context, f repositories.OrderFilter) (*services.OrderList, error)
}

type OrderHandler struct {
	Orders OrderManager
	Log    *zap.Logger
}

type CreateOrderRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,min=7,max=20"`
	TripStart       string `json:"tripStart" validate:"required"`
	TripEnd         string `json:"tripEnd" validate:"required"`
	Location        string `json:"location" validate:"required,max=255"`
	Message         string `json:"message" validate:"max=2000"`
	CarName         string `json:"carName" validate:"required,max=255"`
	CarSlug         string `json:"carSlug" validate:"max=255"`
	SelectedPackage string `json:"selectedPackage" validate:"required,max=255"`
}

func orderError(c *fiber.Ctx, status int, message string, err error) error {
	detail := message
	if err != nil {
		detail = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{"message": message, "error": detail})
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return orderError(c, fiber.StatusBadRequest, "Cannot parse booking request", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Please check the booking details",
			"error":   utils.FormatValidationErrors(errs),
			"errors":  errs,
		})
	}

	tripStart, err := utils.ParseTripTime(req.TripStart)
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid trip start", err)
	}
	tripEnd, err := utils.ParseTripTime(req.TripEnd)
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid trip end", err)
	}
	if !tripEnd.After(tripStart) {
		return orderError(c, fiber.StatusBadRequest, "Trip end must be after trip start", nil)
	}

	order, err := h.Orders.Create(c.UserContext(), services.CreateOrderInput{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		TripStart:       tripStart,
		TripEnd:         tripEnd,
		Location:        req.Location,
		Message:         req.Message,
		CarName:         req.CarName,
		CarSlug:         req.CarSlug,
		SelectedPackage: req.SelectedPackage,
	})
	if err != nil {
		h.Log.Error("Failed to create order", zap.String("email", req.Email), zap.Error(err))
		return orderError(c, fiber.StatusBadRequest, "Failed to create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func optionalInt(c *fiber.Ctx, key string) (*int, error) {
	raw := c.Query(key)
	if raw == "" || raw == "all" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
	}
	status, err := optionalInt(c, "status")
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid status filter", err)
	}
	if status != nil {
		s := models.OrderStatus(*status)
		filter.Status = &s
	}
	payment, err := optionalInt(c, "paymentStatus")
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid payment status filter", err)
	}
	if payment != nil {
		p := models.PaymentStatus(*payment)
		filter.PaymentStatus = &p
	}

	res, err := h.Orders.List(c.UserContext(), filter)
	if err != nil {
		h.Log.Error("Failed to list orders", zap.Error(err))
		return orderError(c, fiber.StatusInternalServerError, "Failed to fetch orders", err)
	}
	return c.JSON(res)
}

func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid order id", err)
	}

	order, err := h.Orders.Update(c.UserContext(), id, c.Body(), middleware.ActorID(c))
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return orderError(c, fiber.StatusNotFound, "Order not found", nil)
	case errors.Is(err, services.ErrInvalidPatch):
		return orderError(c, fiber.StatusBadRequest, "Invalid order update", err)
	case errors.Is(err, services.ErrInvalidTransition):
		return orderError(c, fiber.StatusConflict, "Status change not allowed", err)
	case err != nil:
		h.Log.Error("Failed to update order", zap.String("order_id", id.String()), zap.Error(err))
		return orderError(c, fiber.StatusInternalServerError, "Failed to update order", err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return orderError(c, fiber.StatusBadRequest, "Invalid order id", err)
	}

	if _, err := h.Orders.Cancel(c.UserContext(), id); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return orderError(c, fiber.StatusNotFound, "Order not found", nil)
		}
		h.Log.Error("Failed to delete order", zap.String("order_id", id.String()), zap.Error(err))
		return orderError(c, fiber.StatusInternalServerError, "Failed to delete order", err)
	}
	return c.JSON(fiber.Map{"message": "Order deleted successfully"})
}

func (h *OrderHandler) TrackOrder(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Params("id"))
	status, err := h.Orders.GetPublicStatus(c.UserContext(), ref)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return orderError(c, fiber.StatusNotFound, "Order not found", nil)
		}
		h.Log.Error("Failed to track order", zap.String("reference", ref), zap.Error(err))
		return orderError(c, fiber.StatusInternalServerError, "Failed to fetch order", err)
	}
	return c.JSON(status)
}

package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/services"
	"github.com/selfdrive/rentals/utils"
	"go.uber.org/zap"
)

const SignatureHeader = "X-Razorpay-Signature"

type PaymentConfirmer interface {
	HandleGatewayWebhook(ctx context.Context, rawBody []byte, signature string) (services.Outcome, error)
	VerifyPayment(ctx context.Context, in services.VerifyPaymentInput) (services.Outcome, *models.Order, error)
}

type PaymentHandler struct {
	Payments PaymentConfirmer
	Log      *zap.Logger
}

// RazorpayWebhook acknowledges every authentic delivery with 200, including
// replays and unrelated events, so the gateway stops retrying.
func (h *PaymentHandler) RazorpayWebhook(c *fiber.Ctx) error {
	outcome, err := h.Payments.HandleGatewayWebhook(c.UserContext(), c.Body(), c.Get(SignatureHeader))
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	case errors.Is(err, services.ErrMalformedWebhook):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	case err != nil:
		h.Log.Error("Failed to process Razorpay webhook", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}
	return c.JSON(fiber.Map{"status": "ok", "result": outcome})
}

func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	var req services.VerifyPaymentInput
	if err := c.BodyParser(&req); err != nil {
		return orderError(c, fiber.StatusBadRequest, "Cannot parse verification request", err)
	}
	if errs := utils.ValidateStruct(req); errs != nil {
		return orderError(c, fiber.StatusBadRequest, "Missing payment details", errors.New(utils.FormatValidationErrors(errs)))
	}

	outcome, order, err := h.Payments.VerifyPayment(c.UserContext(), req)
	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		return orderError(c, fiber.StatusBadRequest, "Payment verification failed", err)
	case errors.Is(err, services.ErrVerificationUnavailable):
		return orderError(c, fiber.StatusServiceUnavailable, "Online payment is not enabled", err)
	case err != nil:
		h.Log.Error("Failed to verify payment", zap.String("reference", req.PaymentLinkReferenceID), zap.Error(err))
		return orderError(c, fiber.StatusInternalServerError, "Failed to verify payment", err)
	}

	if outcome == services.OutcomeOrderNotFound {
		return orderError(c, fiber.StatusNotFound, "Order not found", nil)
	}
	resp := fiber.Map{"verified": outcome == services.OutcomeConfirmed || outcome == services.OutcomeAlreadyConfirmed, "result": outcome}
	if order != nil {
		resp["bookingId"] = order.Reference()
		resp["paymentStatus"] = order.PaymentStatus
	}
	return c.JSON(resp)
}

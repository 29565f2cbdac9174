package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
	"github.com/selfdrive/rentals/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidSignature        = errors.New("invalid payment signature")
	ErrMalformedWebhook        = errors.New("malformed webhook payload")
	ErrVerificationUnavailable = errors.New("payment verification is not configured")
)

const EventPaymentLinkPaid = "payment_link.paid"

type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeAlreadyConfirmed Outcome = "already_confirmed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeOrderNotFound    Outcome = "order_not_found"
)

type PaymentOrderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByBookingID(ctx context.Context, bookingID string) (*models.Order, error)
	// MarkPaid must be atomic: true only for the one caller that moved the
	// order out of the unpaid state.
	MarkPaid(ctx context.Context, id uuid.UUID, transactionID, linkID string) (bool, error)
}

type razorpayEntity struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity razorpayEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentService confirms payments reported by the gateway, either through
// the server-to-server webhook or the customer's redirect back to the site.
type PaymentService struct {
	Orders   PaymentOrderStore
	Settings payments.SettingsSource
	Notifier Notifier
	Log      *zap.Logger
}

func (s *PaymentService) HandleGatewayWebhook(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	cfg, err := s.Settings.Payment(ctx)
	if err != nil {
		return "", fmt.Errorf("load payment settings: %w", err)
	}

	if cfg.WebhookSecret == "" {
		s.Log.Warn("Razorpay webhook secret not configured, skipping signature verification")
	} else if !payments.VerifyWebhookSignature(rawBody, signature, cfg.WebhookSecret) {
		s.Log.Warn("Rejected Razorpay webhook with bad signature")
		return "", ErrInvalidSignature
	}

	var event razorpayEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if event.Event != EventPaymentLinkPaid {
		s.Log.Debug("Ignoring Razorpay event", zap.String("event", event.Event))
		return OutcomeIgnored, nil
	}

	link := event.Payload.PaymentLink.Entity
	outcome, _, err := s.markPaid(ctx, link.ReferenceID, event.Payload.Payment.Entity.ID, link.ID)
	return outcome, err
}

type VerifyPaymentInput struct {
	PaymentLinkID          string `json:"razorpay_payment_link_id" validate:"required"`
	PaymentLinkReferenceID string `json:"razorpay_payment_link_reference_id" validate:"required"`
	PaymentLinkStatus      string `json:"razorpay_payment_link_status" validate:"required"`
	PaymentID              string `json:"razorpay_payment_id" validate:"required"`
	Signature              string `json:"razorpay_signature" validate:"required"`
}

// VerifyPayment checks the signed redirect parameters and, for a paid link,
// confirms the order through the same path as the webhook.
func (s *PaymentService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (Outcome, *models.Order, error) {
	cfg, err := s.Settings.Payment(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("load payment settings: %w", err)
	}
	if cfg.RazorpayKeySecret == "" {
		return "", nil, ErrVerificationUnavailable
	}
	if !payments.VerifyPaymentLinkSignature(in.PaymentLinkID, in.PaymentLinkReferenceID, in.PaymentLinkStatus, in.PaymentID, in.Signature, cfg.RazorpayKeySecret) {
		return "", nil, ErrInvalidSignature
	}
	if in.PaymentLinkStatus != "paid" {
		return OutcomeIgnored, nil, nil
	}
	return s.markPaid(ctx, in.PaymentLinkReferenceID, in.PaymentID, in.PaymentLinkID)
}

func (s *PaymentService) findByReference(ctx context.Context, ref string) (*models.Order, error) {
	order, err := s.Orders.FindByBookingID(ctx, ref)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	id, perr := uuid.Parse(ref)
	if perr != nil {
		return nil, ErrOrderNotFound
	}
	order, err = s.Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// markPaid is idempotent across concurrent deliveries: the conditional write
// decides which caller confirms the order and queues the confirmation email.
func (s *PaymentService) markPaid(ctx context.Context, ref, transactionID, linkID string) (Outcome, *models.Order, error) {
	log := s.Log.With(zap.String("reference", ref), zap.String("transaction_id", transactionID))

	order, err := s.findByReference(ctx, ref)
	if errors.Is(err, ErrOrderNotFound) {
		log.Warn("Payment received for unknown order")
		return OutcomeOrderNotFound, nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("find order: %w", err)
	}
	if order.PaymentStatus == models.PaymentPaid {
		log.Info("Payment already recorded, skipping")
		return OutcomeAlreadyConfirmed, order, nil
	}

	flipped, err := s.Orders.MarkPaid(ctx, order.ID, transactionID, linkID)
	if err != nil {
		return "", nil, fmt.Errorf("mark order paid: %w", err)
	}
	if !flipped {
		log.Info("Payment recorded by a concurrent confirmation, skipping")
		return OutcomeAlreadyConfirmed, order, nil
	}

	order.PaymentStatus = models.PaymentPaid
	order.Payment.TransactionID = transactionID
	if order.Payment.LinkID == "" {
		order.Payment.LinkID = linkID
	}

	log.Info("Payment confirmed", zap.String("order_id", order.ID.String()))
	if s.Notifier != nil {
		s.Notifier.Dispatch(*order, notifications.SlugOrderConfirmed)
	}
	return OutcomeConfirmed, order, nil
}

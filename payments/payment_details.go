package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/settings"
	"go.uber.org/zap"
)

type DetailType string

const (
	DetailNone DetailType = "none"
	DetailQR   DetailType = "qr"
	DetailLink DetailType = "link"
)

type Details struct {
	Type   DetailType
	Amount float64

	// qr
	QRCode []byte
	UPIURL string

	// link
	Link   string
	LinkID string
}

var none = Details{Type: DetailNone}

type SettingsSource interface {
	Payment(ctx context.Context) (settings.Payment, error)
}

type LinkCreator interface {
	CreatePaymentLink(ctx context.Context, keyID, keySecret string, req PaymentLinkRequest) (*PaymentLink, error)
}

// Provider produces whatever the customer needs to pay for an order. It never
// returns an error: every failure degrades to a "none" result.
type Provider struct {
	Settings      SettingsSource
	Gateway       LinkCreator
	PublicSiteURL string
	Log           *zap.Logger
}

func (p *Provider) Generate(ctx context.Context, order models.Order) Details {
	amount := order.ChargeAmount()
	if amount <= 0 {
		return none
	}

	cfg, err := p.Settings.Payment(ctx)
	if err != nil {
		p.Log.Error("Failed to load payment settings", zap.String("order_id", order.ID.String()), zap.Error(err))
		return none
	}

	switch strings.ToLower(cfg.Method) {
	case settings.MethodRazorpay:
		return p.paymentLink(ctx, order, amount, cfg)
	default:
		return p.upiQR(order, amount, cfg)
	}
}

func (p *Provider) upiQR(order models.Order, amount float64, cfg settings.Payment) Details {
	if cfg.UPIVPA == "" {
		p.Log.Warn("UPI VPA not configured, skipping payment QR", zap.String("order_id", order.ID.String()))
		return none
	}
	ref := order.Reference()
	png, link, err := UPIQRCode(UPIRequest{
		VPA:       cfg.UPIVPA,
		PayeeName: cfg.UPIPayeeName,
		Amount:    amount,
		Note:      "Booking " + ref,
		Reference: ref,
	})
	if err != nil {
		p.Log.Error("Failed to generate UPI QR", zap.String("booking_ref", ref), zap.Error(err))
		return none
	}
	return Details{Type: DetailQR, Amount: amount, QRCode: png, UPIURL: link}
}

func (p *Provider) paymentLink(ctx context.Context, order models.Order, amount float64, cfg settings.Payment) Details {
	ref := order.GatewayReference()
	req := PaymentLinkRequest{
		Amount:      ToMinorUnits(amount),
		Currency:    "INR",
		ReferenceID: ref,
		Description: fmt.Sprintf("Self drive booking %s - %s", order.Reference(), order.CarName),
		Customer: RazorpayCustomer{
			Name:    order.Name,
			Email:   order.Email,
			Contact: NormalizeContact(order.Phone),
		},
	}
	if p.PublicSiteURL != "" {
		req.CallbackURL = p.PublicSiteURL + "/track/" + ref
		req.CallbackMethod = "get"
	}

	link, err := p.Gateway.CreatePaymentLink(ctx, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, req)
	if err != nil {
		p.Log.Error("Failed to create payment link", zap.String("booking_ref", ref), zap.Error(err))
		return none
	}
	return Details{
		Type:   DetailLink,
		Amount: float64(link.Amount) / 100,
		Link:   link.ShortURL,
		LinkID: link.ID,
	}
}

package payments

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/settings"
	"go.uber.org/zap"
)

type staticSettings struct {
	cfg settings.Payment
	err error
}

func (s staticSettings) Payment(context.Context) (settings.Payment, error) { return s.cfg, s.err }

type fakeGateway struct {
	calls int
	last  PaymentLinkRequest
	link  *PaymentLink
	err   error
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, _, _ string, req PaymentLinkRequest) (*PaymentLink, error) {
	f.calls++
	f.last = req
	return f.link, f.err
}

func pricedOrder(price float64) models.Order {
	id := "SDR173000000000001"
	return models.Order{
		ID:         uuid.New(),
		BookingID:  &id,
		Name:       "Asha",
		Email:      "a@x.com",
		Phone:      "90000 00001",
		CarName:    "Swift",
		FinalPrice: &price,
	}
}

func TestGenerateReturnsNoneForNonPositiveAmount(t *testing.T) {
	gw := &fakeGateway{}
	p := &Provider{Settings: staticSettings{cfg: settings.Payment{Method: settings.MethodRazorpay}}, Gateway: gw, Log: zap.NewNop()}

	order := pricedOrder(0)
	if got := p.Generate(context.Background(), order); got.Type != DetailNone {
		t.Fatalf("expected none, got %s", got.Type)
	}
	order.FinalPrice = nil
	if got := p.Generate(context.Background(), order); got.Type != DetailNone {
		t.Fatalf("expected none for missing price, got %s", got.Type)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway should not be called, got %d calls", gw.calls)
	}
}

func TestGenerateManualBuildsUPIQR(t *testing.T) {
	p := &Provider{Settings: staticSettings{cfg: settings.Payment{Method: settings.MethodManual, UPIVPA: "rentals@upi", UPIPayeeName: "Self Drive"}}, Log: zap.NewNop()}

	got := p.Generate(context.Background(), pricedOrder(1500))
	if got.Type != DetailQR {
		t.Fatalf("expected qr, got %s", got.Type)
	}
	if !bytes.HasPrefix(got.QRCode, []byte("\x89PNG")) {
		t.Fatalf("expected PNG bytes")
	}
	for _, want := range []string{"pa=rentals%40upi", "am=1500.00", "cu=INR", "tr=SDR173000000000001"} {
		if !strings.Contains(got.UPIURL, want) {
			t.Errorf("UPI url %q missing %q", got.UPIURL, want)
		}
	}
}

func TestGenerateManualWithoutVPAIsNone(t *testing.T) {
	p := &Provider{Settings: staticSettings{cfg: settings.Payment{Method: settings.MethodManual}}, Log: zap.NewNop()}
	if got := p.Generate(context.Background(), pricedOrder(1500)); got.Type != DetailNone {
		t.Fatalf("expected none, got %s", got.Type)
	}
}

func TestGenerateGatewayLink(t *testing.T) {
	gw := &fakeGateway{link: &PaymentLink{ID: "plink_1", ShortURL: "https://rzp.io/i/x", Amount: 150000}}
	p := &Provider{
		Settings:      staticSettings{cfg: settings.Payment{Method: settings.MethodRazorpay, RazorpayKeyID: "k", RazorpayKeySecret: "s"}},
		Gateway:       gw,
		PublicSiteURL: "https://rent.example",
		Log:           zap.NewNop(),
	}

	got := p.Generate(context.Background(), pricedOrder(1500))
	if got.Type != DetailLink || got.Link != "https://rzp.io/i/x" || got.LinkID != "plink_1" || got.Amount != 1500 {
		t.Fatalf("unexpected details: %+v", got)
	}
	if gw.last.Amount != 150000 {
		t.Errorf("amount in paise = %d, want 150000", gw.last.Amount)
	}
	if gw.last.Customer.Contact != "+919000000001" {
		t.Errorf("contact = %q", gw.last.Customer.Contact)
	}
	if gw.last.ReferenceID != "SDR173000000000001" {
		t.Errorf("reference = %q", gw.last.ReferenceID)
	}
	if gw.last.CallbackURL != "https://rent.example/track/SDR173000000000001" {
		t.Errorf("callback = %q", gw.last.CallbackURL)
	}
}

func TestGenerateGatewayFailureIsNone(t *testing.T) {
	gw := &fakeGateway{err: errors.New("boom")}
	p := &Provider{Settings: staticSettings{cfg: settings.Payment{Method: settings.MethodRazorpay}}, Gateway: gw, Log: zap.NewNop()}
	if got := p.Generate(context.Background(), pricedOrder(1500)); got.Type != DetailNone {
		t.Fatalf("expected none, got %s", got.Type)
	}
}

func TestGenerateLegacyOrderUsesInternalIDAsReference(t *testing.T) {
	gw := &fakeGateway{link: &PaymentLink{ID: "plink_2", ShortURL: "https://rzp.io/i/y", Amount: 100}}
	p := &Provider{Settings: staticSettings{cfg: settings.Payment{Method: settings.MethodRazorpay}}, Gateway: gw, Log: zap.NewNop()}

	order := pricedOrder(1)
	order.BookingID = nil
	p.Generate(context.Background(), order)
	if gw.last.ReferenceID != order.ID.String() {
		t.Fatalf("reference = %q, want %q", gw.last.ReferenceID, order.ID.String())
	}
}

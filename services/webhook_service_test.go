package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/selfdrive/rentals/models"
	"github.com/selfdrive/rentals/notifications"
	"github.com/selfdrive/rentals/payments"
	"github.com/selfdrive/rentals/settings"
	"go.uber.org/zap"
)

const paidEvent = `{
  "event": "payment_link.paid",
  "payload": {
    "payment_link": {"entity": {"id": "plink_123", "status": "paid", "reference_id": "SDR174000000000001"}},
    "payment": {"entity": {"id": "pay_ABC", "status": "captured"}}
  }
}`

func newPaymentService(secret string) (*PaymentService, *memOrders, *recordingNotifier) {
	store := newMemOrders()
	notifier := &recordingNotifier{}
	svc := &PaymentService{
		Orders:   store,
		Settings: staticPaymentSettings{cfg: settings.Payment{WebhookSecret: secret, RazorpayKeySecret: "key_secret"}},
		Notifier: notifier,
		Log:      zap.NewNop(),
	}
	return svc, store, notifier
}

func TestWebhookIsIdempotent(t *testing.T) {
	svc, store, notifier := newPaymentService("whsec")
	order := store.put(models.Order{Status: models.StatusApproved, BookingID: ptr("SDR174000000000001")})
	sig := payments.Sign("whsec", []byte(paidEvent))

	outcome, err := svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), sig)
	if err != nil || outcome != OutcomeConfirmed {
		t.Fatalf("first delivery: outcome=%s err=%v", outcome, err)
	}
	saved := store.orders[order.ID]
	if saved.PaymentStatus != models.PaymentPaid || saved.Payment.TransactionID != "pay_ABC" {
		t.Fatalf("order not marked paid: %+v", saved)
	}
	if saved.Status != models.StatusApproved {
		t.Fatalf("payment must not change order status")
	}

	outcome, err = svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), sig)
	if err != nil || outcome != OutcomeAlreadyConfirmed {
		t.Fatalf("replay: outcome=%s err=%v", outcome, err)
	}
	if got := notifier.count(notifications.SlugOrderConfirmed); got != 1 {
		t.Fatalf("confirmation dispatched %d times, want 1", got)
	}
	if store.paidWrites != 1 {
		t.Fatalf("replay wrote the order again")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, store, notifier := newPaymentService("whsec")
	order := store.put(models.Order{BookingID: ptr("SDR174000000000001")})

	for _, sig := range []string{"", "deadbeef", payments.Sign("other", []byte(paidEvent))} {
		if _, err := svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), sig); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("signature %q: got %v, want ErrInvalidSignature", sig, err)
		}
	}
	if store.orders[order.ID].PaymentStatus != models.PaymentUnpaid || store.paidWrites != 0 {
		t.Fatalf("rejected webhook mutated the order")
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("rejected webhook dispatched notifications")
	}
}

func TestWebhookWithoutSecretSkipsVerification(t *testing.T) {
	svc, store, _ := newPaymentService("")
	store.put(models.Order{BookingID: ptr("SDR174000000000001")})

	outcome, err := svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), "")
	if err != nil || outcome != OutcomeConfirmed {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	svc, _, notifier := newPaymentService("")
	outcome, err := svc.HandleGatewayWebhook(context.Background(), []byte(`{"event":"payment.failed"}`), "")
	if err != nil || outcome != OutcomeIgnored {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("ignored event dispatched")
	}

	if _, err := svc.HandleGatewayWebhook(context.Background(), []byte(`{"event":`), ""); !errors.Is(err, ErrMalformedWebhook) {
		t.Fatalf("got %v, want ErrMalformedWebhook", err)
	}
}

func TestWebhookFallsBackToInternalID(t *testing.T) {
	svc, store, _ := newPaymentService("")
	order := store.put(models.Order{})
	body := `{"event":"payment_link.paid","payload":{"payment_link":{"entity":{"id":"plink_9","reference_id":"` +
		order.ID.String() + `"}},"payment":{"entity":{"id":"pay_9"}}}}`

	outcome, err := svc.HandleGatewayWebhook(context.Background(), []byte(body), "")
	if err != nil || outcome != OutcomeConfirmed {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}
	if store.orders[order.ID].Payment.LinkID != "plink_9" {
		t.Fatalf("link id not recorded")
	}
}

func TestWebhookUnknownOrderIsAccepted(t *testing.T) {
	svc, _, _ := newPaymentService("")
	outcome, err := svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), "")
	if err != nil || outcome != OutcomeOrderNotFound {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}
}

func TestVerifyPaymentSharesConfirmationPath(t *testing.T) {
	svc, store, notifier := newPaymentService("whsec")
	order := store.put(models.Order{BookingID: ptr("SDR5")})
	in := VerifyPaymentInput{
		PaymentLinkID:          "plink_5",
		PaymentLinkReferenceID: "SDR5",
		PaymentLinkStatus:      "paid",
		PaymentID:              "pay_5",
	}
	in.Signature = payments.Sign("key_secret", []byte("plink_5|SDR5|paid|pay_5"))

	outcome, got, err := svc.VerifyPayment(context.Background(), in)
	if err != nil || outcome != OutcomeConfirmed || got.ID != order.ID {
		t.Fatalf("outcome=%s err=%v", outcome, err)
	}
	outcome, _, _ = svc.VerifyPayment(context.Background(), in)
	if outcome != OutcomeAlreadyConfirmed {
		t.Fatalf("second verify outcome=%s", outcome)
	}
	if notifier.count(notifications.SlugOrderConfirmed) != 1 {
		t.Fatalf("verify dispatched more than once")
	}

	in.Signature = "tampered"
	if _, _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("got %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyPaymentNeedsKeySecret(t *testing.T) {
	svc, _, _ := newPaymentService("")
	svc.Settings = staticPaymentSettings{}
	if _, _, err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{}); !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("got %v", err)
	}
}

// gatedOrders holds every booking-id lookup until `want` callers have read
// the order, so both confirmation paths see it unpaid.
type gatedOrders struct {
	*memOrders
	want    int
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func (g *gatedOrders) FindByBookingID(ctx context.Context, ref string) (*models.Order, error) {
	order, err := g.memOrders.FindByBookingID(ctx, ref)
	g.mu.Lock()
	g.arrived++
	if g.arrived == g.want {
		close(g.release)
	}
	g.mu.Unlock()
	<-g.release
	return order, err
}

func TestWebhookAndVerifyRacingConfirmOnce(t *testing.T) {
	svc, store, notifier := newPaymentService("whsec")
	store.put(models.Order{Status: models.StatusApproved, BookingID: ptr("SDR174000000000001")})
	svc.Orders = &gatedOrders{memOrders: store, want: 2, release: make(chan struct{})}

	verify := VerifyPaymentInput{
		PaymentLinkID:          "plink_123",
		PaymentLinkReferenceID: "SDR174000000000001",
		PaymentLinkStatus:      "paid",
		PaymentID:              "pay_ABC",
	}
	verify.Signature = payments.Sign("key_secret", []byte("plink_123|SDR174000000000001|paid|pay_ABC"))

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcomes[0], errs[0] = svc.HandleGatewayWebhook(context.Background(), []byte(paidEvent), payments.Sign("whsec", []byte(paidEvent)))
	}()
	go func() {
		defer wg.Done()
		outcomes[1], _, errs[1] = svc.VerifyPayment(context.Background(), verify)
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("confirmation %d failed: %v", i, err)
		}
	}
	confirmed := 0
	for _, o := range outcomes {
		if o == OutcomeConfirmed {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("outcomes %v, want exactly one confirmed", outcomes)
	}
	if got := notifier.count(notifications.SlugOrderConfirmed); got != 1 {
		t.Fatalf("order_confirmed dispatched %d times, want 1", got)
	}
	if store.paidWrites != 1 {
		t.Fatalf("paid writes = %d, want 1", store.paidWrites)
	}
}

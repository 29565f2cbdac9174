package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePaymentLinkSendsMinorUnitsAndReference(t *testing.T) {
	var got PaymentLinkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_links" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			t.Errorf("missing basic auth, got %q/%q", user, pass)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"plink_123","short_url":"https://rzp.io/i/abc","amount":120000,"status":"created","reference_id":"SDR1"}`))
	}))
	defer srv.Close()

	client := &RazorpayClient{BaseURL: srv.URL, HTTP: srv.Client()}
	link, err := client.CreatePaymentLink(context.Background(), "rzp_key", "rzp_secret", PaymentLinkRequest{
		Amount:      ToMinorUnits(1200),
		ReferenceID: "SDR1",
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if link.ID != "plink_123" || link.ShortURL != "https://rzp.io/i/abc" {
		t.Fatalf("unexpected link: %+v", link)
	}
	if got.Amount != 120000 || got.Currency != "INR" || got.ReferenceID != "SDR1" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestCreatePaymentLinkSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	client := &RazorpayClient{BaseURL: srv.URL, HTTP: srv.Client()}
	if _, err := client.CreatePaymentLink(context.Background(), "k", "s", PaymentLinkRequest{Amount: 100}); err == nil {
		t.Fatalf("expected error on 401")
	}
}

func TestCreatePaymentLinkRequiresCredentials(t *testing.T) {
	client := NewRazorpayClient()
	if _, err := client.CreatePaymentLink(context.Background(), "", "", PaymentLinkRequest{}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

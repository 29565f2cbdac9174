package notifications

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/selfdrive/rentals/settings"
	"go.uber.org/zap"
)

type staticEmail settings.Email

func (s staticEmail) Email(context.Context) (settings.Email, error) { return settings.Email(s), nil }

func TestBrevoMailerSendsAttachments(t *testing.T) {
	var got brevoPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "brevo-key" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"messageId":"<1@brevo>"}`))
	}))
	defer srv.Close()

	m := &BrevoMailer{Settings: staticEmail{APIKey: "brevo-key"}, BaseURL: srv.URL, HTTP: srv.Client(), Log: zap.NewNop()}
	err := m.Send(context.Background(), Message{
		ToEmail:     "a@x.com",
		Subject:     "Booking confirmed",
		HTML:        "<p>hi</p>",
		Attachments: []Attachment{{Name: "agreement.pdf", Content: []byte("%PDF-1.4")}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if got.Sender["name"] != FallbackSenderName || got.Sender["email"] != FallbackSenderEmail {
		t.Errorf("sender fallback not applied: %v", got.Sender)
	}
	if got.To[0]["name"] != "a" {
		t.Errorf("recipient name = %q", got.To[0]["name"])
	}
	if len(got.Attachment) != 1 || got.Attachment[0].Name != "agreement.pdf" {
		t.Fatalf("attachments = %+v", got.Attachment)
	}
	raw, _ := base64.StdEncoding.DecodeString(got.Attachment[0].Content)
	if string(raw) != "%PDF-1.4" {
		t.Errorf("attachment content = %q", raw)
	}
}

func TestBrevoMailerWithoutAPIKey(t *testing.T) {
	m := &BrevoMailer{Settings: staticEmail{}, BaseURL: "http://127.0.0.1:0", HTTP: http.DefaultClient, Log: zap.NewNop()}
	err := m.Send(context.Background(), Message{ToEmail: "a@x.com"})
	if !errors.Is(err, ErrEmailNotConfigured) {
		t.Fatalf("expected ErrEmailNotConfigured, got %v", err)
	}
}

func TestBrevoMailerRejectsBadRecipient(t *testing.T) {
	m := &BrevoMailer{Settings: staticEmail{APIKey: "k"}, Log: zap.NewNop()}
	if err := m.Send(context.Background(), Message{ToEmail: "not-an-address"}); err == nil {
		t.Fatalf("expected error for invalid recipient")
	}
}

func TestBrevoMailerReportsNon201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"invalid_parameter"}`))
	}))
	defer srv.Close()

	m := &BrevoMailer{Settings: staticEmail{APIKey: "k"}, BaseURL: srv.URL, HTTP: srv.Client(), Log: zap.NewNop()}
	if err := m.Send(context.Background(), Message{ToEmail: "a@x.com"}); err == nil {
		t.Fatalf("expected error on 400")
	}
}

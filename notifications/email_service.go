package notifications

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/selfdrive/rentals/settings"
	"go.uber.org/zap"
)

const brevoBaseURL = "https://api.brevo.com"

const (
	FallbackSenderName  = "Self Drive Rentals"
	FallbackSenderEmail = "no-reply@selfdrive.local"
)

var ErrEmailNotConfigured = errors.New("email transport not configured")

type Attachment struct {
	Name    string
	Content []byte
}

type Message struct {
	ToEmail     string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type EmailSettingsSource interface {
	Email(ctx context.Context) (settings.Email, error)
}

type brevoAttachment struct {
	Content string `json:"content"`
	Name    string `json:"name"`
}

type brevoPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
	Attachment  []brevoAttachment   `json:"attachment,omitempty"`
}

// BrevoMailer reads its API key and sender on every send.
type BrevoMailer struct {
	Settings EmailSettingsSource
	BaseURL  string
	HTTP     *http.Client
	Log      *zap.Logger
}

func NewBrevoMailer(src EmailSettingsSource, log *zap.Logger) *BrevoMailer {
	return &BrevoMailer{
		Settings: src,
		BaseURL:  brevoBaseURL,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Log:      log,
	}
}

// SenderIdentity returns the configured sender, falling back to fixed defaults.
func SenderIdentity(cfg settings.Email) (name, email string) {
	name, email = cfg.FromName, cfg.FromEmail
	if name == "" {
		name = FallbackSenderName
	}
	if email == "" {
		email = FallbackSenderEmail
	}
	return name, email
}

func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" || !strings.Contains(msg.ToEmail, "@") {
		return fmt.Errorf("invalid recipient email: %q", msg.ToEmail)
	}

	cfg, err := m.Settings.Email(ctx)
	if err != nil {
		return fmt.Errorf("load email settings: %w", err)
	}
	if cfg.APIKey == "" {
		return ErrEmailNotConfigured
	}
	senderName, senderEmail := SenderIdentity(cfg)

	recipientName := msg.ToName
	if recipientName == "" {
		recipientName = msg.ToEmail[:strings.Index(msg.ToEmail, "@")]
	}

	payload := brevoPayload{
		Sender:      map[string]string{"name": senderName, "email": senderEmail},
		To:          []map[string]string{{"email": msg.ToEmail, "name": recipientName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	}
	for _, a := range msg.Attachments {
		payload.Attachment = append(payload.Attachment, brevoAttachment{
			Content: base64.StdEncoding.EncodeToString(a.Content),
			Name:    a.Name,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", cfg.APIKey)
	req.Header.Set("content-type", "application/json")

	resp, err := m.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, string(respBody))
	}

	m.Log.Debug("Email accepted by Brevo",
		zap.String("to", msg.ToEmail),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}

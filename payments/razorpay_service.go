package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const razorpayBaseURL = "https://api.razorpay.com"

type RazorpayCustomer struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type razorpayNotify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

type PaymentLinkRequest struct {
	Amount         int64            `json:"amount"`
	Currency       string           `json:"currency"`
	AcceptPartial  bool             `json:"accept_partial"`
	ReferenceID    string           `json:"reference_id"`
	Description    string           `json:"description"`
	Customer       RazorpayCustomer `json:"customer"`
	Notify         razorpayNotify   `json:"notify"`
	ReminderEnable bool             `json:"reminder_enable"`
	CallbackURL    string           `json:"callback_url,omitempty"`
	CallbackMethod string           `json:"callback_method,omitempty"`
}

type PaymentLink struct {
	ID          string `json:"id"`
	ShortURL    string `json:"short_url"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type RazorpayClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewRazorpayClient() *RazorpayClient {
	return &RazorpayClient{
		BaseURL: razorpayBaseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ToMinorUnits converts rupees to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (c *RazorpayClient) CreatePaymentLink(ctx context.Context, keyID, keySecret string, req PaymentLinkRequest) (*PaymentLink, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay credentials are not configured")
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment link payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment_links", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link request: %w", err)
	}
	httpReq.SetBasicAuth(keyID, keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send payment link request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment link response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr razorpayError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay returned %d: %s", resp.StatusCode, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay returned %d", resp.StatusCode)
	}

	var link PaymentLink
	if err := json.Unmarshal(respBody, &link); err != nil {
		return nil, fmt.Errorf("failed to decode payment link response: %w", err)
	}
	if link.ShortURL == "" {
		return nil, fmt.Errorf("razorpay response missing short_url")
	}
	return &link, nil
}

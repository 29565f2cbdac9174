// Package settings loads transport and gateway credentials on every call so a
// rotated secret takes effect without a restart.
package settings

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	config "github.com/selfdrive/rentals/configs"
	"github.com/selfdrive/rentals/models"
	"golang.org/x/crypto/nacl/secretbox"
	"gorm.io/gorm"
)

const (
	KeyEmail   = "email"
	KeyPayment = "payment"
)

const (
	MethodManual   = "manual"
	MethodRazorpay = "razorpay"
)

type Email struct {
	APIKey    string `json:"apiKey"`
	FromEmail string `json:"fromEmail"`
	FromName  string `json:"fromName"`
}

type Payment struct {
	Method            string `json:"method"`
	UPIVPA            string `json:"upiVpa"`
	UPIPayeeName      string `json:"upiPayeeName"`
	RazorpayKeyID     string `json:"razorpayKeyId"`
	RazorpayKeySecret string `json:"razorpayKeySecret"`
	WebhookSecret     string `json:"webhookSecret"`
}

type Store interface {
	FindSetting(ctx context.Context, key string) (*models.Setting, error)
}

type Provider struct {
	Store Store
	// Key is the secretbox key; nil means sealed rows cannot be opened.
	Key *[32]byte
}

func NewProvider(store Store, hexKey string) (*Provider, error) {
	p := &Provider{Store: store}
	if hexKey == "" {
		return p, nil
	}
	key, err := ParseKey(hexKey)
	if err != nil {
		return nil, err
	}
	p.Key = key
	return p, nil
}

func ParseKey(hexKey string) (*[32]byte, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("settings key is not hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("settings key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (p *Provider) Email(ctx context.Context) (Email, error) {
	out := Email{
		APIKey:    config.Config("BREVO_API_KEY"),
		FromEmail: config.Config("EMAIL_SENDER"),
		FromName:  config.Config("EMAIL_SENDER_NAME"),
	}
	if _, err := p.load(ctx, KeyEmail, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (p *Provider) Payment(ctx context.Context) (Payment, error) {
	out := Payment{
		Method:            config.ConfigDefault("PAYMENT_METHOD", MethodManual),
		UPIVPA:            config.Config("UPI_VPA"),
		UPIPayeeName:      config.Config("UPI_PAYEE_NAME"),
		RazorpayKeyID:     config.Config("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: config.Config("RAZORPAY_KEY_SECRET"),
		WebhookSecret:     config.Config("RAZORPAY_WEBHOOK_SECRET"),
	}
	if _, err := p.load(ctx, KeyPayment, &out); err != nil {
		return out, err
	}
	return out, nil
}

// load overlays the stored JSON for key onto dst. A missing row leaves dst untouched.
func (p *Provider) load(ctx context.Context, key string, dst interface{}) (bool, error) {
	if p.Store == nil {
		return false, nil
	}
	row, err := p.Store.FindSetting(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load %s settings: %w", key, err)
	}

	payload := []byte(row.Value)
	if row.Sealed {
		payload, err = Open(p.Key, row.Value)
		if err != nil {
			return false, fmt.Errorf("open %s settings: %w", key, err)
		}
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s settings: %w", key, err)
	}
	return true, nil
}

// Seal encrypts plaintext as hex(nonce || box).
func Seal(key *[32]byte, plaintext []byte) (string, error) {
	if key == nil {
		return "", errors.New("settings key not configured")
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], plaintext, &nonce, key)
	return hex.EncodeToString(box), nil
}

func Open(key *[32]byte, sealed string) ([]byte, error) {
	if key == nil {
		return nil, errors.New("settings key not configured")
	}
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(raw) < 24+secretbox.Overhead {
		return nil, errors.New("sealed value too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, key)
	if !ok {
		return nil, errors.New("sealed value failed authentication")
	}
	return plain, nil
}

package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks X-Razorpay-Signature against the raw request body.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	expected := Sign(secret, rawBody)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// VerifyPaymentLinkSignature checks the signature Razorpay appends to the
// payment-link callback redirect.
func VerifyPaymentLinkSignature(linkID, referenceID, status, paymentID, signature, keySecret string) bool {
	payload := strings.Join([]string{linkID, referenceID, status, paymentID}, "|")
	return VerifyWebhookSignature([]byte(payload), signature, keySecret)
}

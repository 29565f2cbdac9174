package payments

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

const upiQRSize = 256

type UPIRequest struct {
	VPA       string
	PayeeName string
	Amount    float64
	Note      string
	Reference string
}

// UPIDeepLink builds a upi://pay intent with parameters in NPCI order.
func UPIDeepLink(r UPIRequest) string {
	params := []string{
		"pa=" + url.QueryEscape(r.VPA),
	}
	if r.PayeeName != "" {
		params = append(params, "pn="+url.QueryEscape(r.PayeeName))
	}
	params = append(params,
		"am="+fmt.Sprintf("%.2f", r.Amount),
		"cu=INR",
	)
	if r.Note != "" {
		params = append(params, "tn="+url.QueryEscape(r.Note))
	}
	if r.Reference != "" {
		params = append(params, "tr="+url.QueryEscape(r.Reference))
	}
	return "upi://pay?" + strings.Join(params, "&")
}

func UPIQRCode(r UPIRequest) ([]byte, string, error) {
	link := UPIDeepLink(r)
	png, err := qrcode.Encode(link, qrcode.Medium, upiQRSize)
	if err != nil {
		return nil, link, fmt.Errorf("failed to encode UPI QR: %w", err)
	}
	return png, link, nil
}

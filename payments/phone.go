package payments

import (
	"regexp"
	"strings"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9]`)

// NormalizeContact prepares a free-text customer phone for the gateway: digits
// only, with the Indian country code added to a bare 10-digit mobile number.
func NormalizeContact(phone string) string {
	digits := nonNumericRegex.ReplaceAllString(phone, "")

	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "+91" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return "+91" + digits[1:]
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits
	}
	return digits
}

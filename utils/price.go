package utils

import "strings"

const rupeeGlyph = "₹"

// PackagePrice scrapes the rupee amount out of a package display string such as
// "6 Hours - ₹1,200": everything after the last currency glyph, digits only.
// Returns "" when the string carries no amount. The display format is the only
// contract, so callers should prefer a structured finalPrice when they have one.
func PackagePrice(selectedPackage string) string {
	idx := strings.LastIndex(selectedPackage, rupeeGlyph)
	if idx < 0 {
		return ""
	}
	tail := selectedPackage[idx+len(rupeeGlyph):]
	var b strings.Builder
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

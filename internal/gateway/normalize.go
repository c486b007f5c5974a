package gateway

import "strings"

// localNumberMaxDigits is the longest digit count still treated as a local
// number missing its country code. Brazilian mobiles are 11 digits with the
// area code.
const localNumberMaxDigits = 11

// Normalize converts a raw channel address into provider-ready digits:
// non-digits are stripped, and short local numbers get the country code
// prepended. Idempotent: applying it twice yields the same result.
func Normalize(raw, countryCode string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()

	if digits == "" {
		return ""
	}

	if len(digits) <= localNumberMaxDigits && !strings.HasPrefix(digits, countryCode) {
		return countryCode + digits
	}

	return digits
}

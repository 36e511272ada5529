package pricefeed

import "strings"

// normalizeSymbol maps feed symbols like "OANDA:EUR_USD" to the plain
// pair form ("EURUSD") the rest of the system keys on.
func normalizeSymbol(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, "_", "")
	return strings.ToUpper(s)
}

package mailer

import "strings"

// transientMarkers are the error-text fragments that indicate a delivery
// failure worth retrying: throttling, timeouts, and 5xx-class provider
// errors. Anything else (invalid address, rejected content, auth failure)
// is permanent and retrying would only burn quota.
var transientMarkers = []string{
	"429",
	"too many requests",
	"rate limit",
	"rate-limit",
	"throttl",
	"timeout",
	"timed out",
	"deadline exceeded",
	"temporar",
	"connection refused",
	"connection reset",
	"unavailable",
	"500",
	"502",
	"503",
	"504",
}

// IsTransient classifies a send failure by its error text.
func IsTransient(errText string) bool {
	errText = strings.ToLower(errText)
	for _, marker := range transientMarkers {
		if strings.Contains(errText, marker) {
			return true
		}
	}
	return false
}

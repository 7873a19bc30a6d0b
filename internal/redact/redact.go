package redact

import (
	"regexp"
	"strings"
)

// Placeholders substituted for card-shaped substrings. None contain digits,
// so Redact is idempotent under re-application.
const (
	CardPlaceholder   = "[CARD]"
	CVVPlaceholder    = "[CVV]"
	ExpiryPlaceholder = "[EXPIRY]"
	Redacted          = "[REDACTED]"
)

var (
	// 13-19 digits, optionally grouped in 4s by spaces or dashes.
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	// MM/YY or MM/YYYY.
	expiryPattern = regexp.MustCompile(`\b(0[1-9]|1[0-2])\s*/\s*(\d{4}|\d{2})\b`)
	// Standalone 3-4 digit runs (CVV-shaped).
	cvvPattern   = regexp.MustCompile(`\b\d{3,4}\b`)
	// The local-part class admits '*' so an already-masked address re-masks
	// to itself, keeping Redact idempotent.
	emailPattern = regexp.MustCompile(`([A-Za-z0-9._%+*-]+)@([A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`)
)

// Redact masks card numbers, expiry dates, CVV-shaped digit runs and email
// addresses in free text. Pure function, safe on already-redacted input.
func Redact(text string) string {
	out := cardPattern.ReplaceAllString(text, CardPlaceholder)
	out = expiryPattern.ReplaceAllString(out, ExpiryPlaceholder)
	out = emailPattern.ReplaceAllStringFunc(out, maskEmail)
	out = cvvPattern.ReplaceAllString(out, CVVPlaceholder)
	return out
}

func maskEmail(addr string) string {
	m := emailPattern.FindStringSubmatch(addr)
	if m == nil {
		return addr
	}
	local, domain := m[1], m[2]
	if len(local) <= 2 {
		return "**@" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:] + "@" + domain
}

// key name fragments that mark a value as sensitive wholesale.
var sensitiveKeys = []string{"card", "pan", "cvv", "cvc", "expiry", "password", "token"}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Structured deep-copies a decoded JSON value, replacing values under
// sensitive keys with [REDACTED] and running Redact over string leaves.
// The input is never mutated.
func Structured(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			if isSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Structured(item)
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			if isSensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = Redact(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = Structured(item)
		}
		return out
	case string:
		return Redact(v)
	default:
		return value
	}
}

// StringMap scrubs a flat metadata map, dropping the value of any sensitive
// key and redacting the rest. Returns a new map; nil stays nil.
func StringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			out[k] = Redacted
			continue
		}
		out[k] = Redact(v)
	}
	return out
}

package card

import "strings"

// Data holds raw card details captured at the till. It is never persisted
// and never serialized; every value must be zeroized before the operation
// that captured it returns.
type Data struct {
	Number      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	Name        string
}

// Complete reports whether all five fields were captured.
func (d *Data) Complete() bool {
	return d != nil && d.Number != "" && d.ExpiryMonth != "" && d.ExpiryYear != "" && d.CVV != "" && d.Name != ""
}

// Zeroize overwrites every field in place. Safe on nil.
func Zeroize(d *Data) {
	if d == nil {
		return
	}
	d.Number = ""
	d.ExpiryMonth = ""
	d.ExpiryYear = ""
	d.CVV = ""
	d.Name = ""
}

// sensitive field names recognised by ZeroizeMap, lowercase.
var sensitiveFields = map[string]struct{}{
	"number":       {},
	"cvv":          {},
	"cvc":          {},
	"expiry":       {},
	"expiry_month": {},
	"expiry_year":  {},
	"expirymonth":  {},
	"expiryyear":   {},
	"name":         {},
}

// ZeroizeMap blanks card-shaped fields in a decoded JSON payload, recursing
// into nested maps. Used on raw request bodies after binding.
func ZeroizeMap(m map[string]interface{}) {
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			ZeroizeMap(nested)
			continue
		}
		if _, ok := sensitiveFields[strings.ToLower(k)]; ok {
			m[k] = ""
		}
	}
}

// With runs fn with the card and guarantees zeroization on every exit path,
// including panics. Call sites must not retain the pointer after With returns.
func With(d *Data, fn func(*Data) error) error {
	defer Zeroize(d)
	return fn(d)
}

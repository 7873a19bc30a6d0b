package redact

import (
	"strings"
	"testing"
)

func TestRedactCardNumbers(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"plain", "charge card 4111111111111111 now"},
		{"spaced", "card 4111 1111 1111 1111 declined"},
		{"dashed", "card 4111-1111-1111-1111 declined"},
		{"nineteen digits", "pan 6011111111111111117"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Redact(tc.in)
			if !strings.Contains(out, CardPlaceholder) {
				t.Fatalf("expected %q in %q", CardPlaceholder, out)
			}
			for _, c := range out {
				if c >= '0' && c <= '9' {
					t.Fatalf("digits leaked: %q", out)
				}
			}
		})
	}
}

func TestRedactExpiryAndCVV(t *testing.T) {
	out := Redact("expiry 12/25 cvv 123")
	if !strings.Contains(out, ExpiryPlaceholder) {
		t.Fatalf("expiry not masked: %q", out)
	}
	if !strings.Contains(out, CVVPlaceholder) {
		t.Fatalf("cvv not masked: %q", out)
	}
}

func TestRedactEmail(t *testing.T) {
	out := Redact("contact jane.doe@example.com please")
	if strings.Contains(out, "jane.doe@") {
		t.Fatalf("local part leaked: %q", out)
	}
	if !strings.Contains(out, "@example.com") {
		t.Fatalf("domain should be preserved: %q", out)
	}
	if !strings.HasPrefix(out, "contact j") {
		t.Fatalf("first local char should be preserved: %q", out)
	}
}

func TestRedactShortEmailLocalPart(t *testing.T) {
	out := Redact("ab@example.com")
	if out != "**@example.com" {
		t.Fatalf("got %q", out)
	}
}

func TestRedactIdempotent(t *testing.T) {
	in := "card 4111111111111111 exp 12/25 cvv 123 jane.doe@example.com"
	once := Redact(in)
	twice := Redact(once)
	if once != twice {
		t.Fatalf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestStructuredSensitiveKeys(t *testing.T) {
	in := map[string]interface{}{
		"cardNumber": "4111111111111111",
		"cvv":        "123",
		"api_token":  "secret",
		"password":   "hunter2",
		"amount":     5000,
		"note":       "pay 4111111111111111",
		"nested": map[string]interface{}{
			"expiry_month": "12",
			"label":        "ok",
		},
		"list": []interface{}{"4111111111111111", 7},
	}
	out := Structured(in).(map[string]interface{})

	for _, key := range []string{"cardNumber", "cvv", "api_token", "password"} {
		if out[key] != Redacted {
			t.Errorf("%s = %v, want %q", key, out[key], Redacted)
		}
	}
	if out["amount"] != 5000 {
		t.Errorf("amount changed: %v", out["amount"])
	}
	if note := out["note"].(string); strings.Contains(note, "4111") {
		t.Errorf("note leaked digits: %q", note)
	}
	nested := out["nested"].(map[string]interface{})
	if nested["expiry_month"] != Redacted {
		t.Errorf("nested expiry not redacted: %v", nested["expiry_month"])
	}
	if nested["label"] != "ok" {
		t.Errorf("nested label changed: %v", nested["label"])
	}
	list := out["list"].([]interface{})
	if s := list[0].(string); strings.Contains(s, "4111") {
		t.Errorf("list leaked digits: %q", s)
	}

	// Input must not be mutated.
	if in["cvv"] != "123" {
		t.Fatalf("input mutated: %v", in["cvv"])
	}
}

func TestStringMap(t *testing.T) {
	in := map[string]string{"card_last4": "1234", "table": "7"}
	out := StringMap(in)
	if out["card_last4"] != Redacted {
		t.Errorf("card key not dropped: %q", out["card_last4"])
	}
	if out["table"] != "7" {
		t.Errorf("table changed: %q", out["table"])
	}
	if StringMap(nil) != nil {
		t.Error("nil map should stay nil")
	}
}

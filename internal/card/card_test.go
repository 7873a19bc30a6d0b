package card

import (
	"errors"
	"testing"
)

func sample() *Data {
	return &Data{
		Number:      "4111111111111111",
		ExpiryMonth: "12",
		ExpiryYear:  "30",
		CVV:         "123",
		Name:        "JANE DOE",
	}
}

func assertZeroized(t *testing.T, d *Data) {
	t.Helper()
	if d.Number != "" || d.ExpiryMonth != "" || d.ExpiryYear != "" || d.CVV != "" || d.Name != "" {
		t.Fatalf("card not zeroized: %+v", d)
	}
}

func TestZeroize(t *testing.T) {
	d := sample()
	Zeroize(d)
	assertZeroized(t, d)
	Zeroize(nil) // must not panic
}

func TestZeroizeMapNested(t *testing.T) {
	m := map[string]interface{}{
		"number": "4111111111111111",
		"CVV":    "123",
		"amount": 5000,
		"card": map[string]interface{}{
			"expiry_month": "12",
			"name":         "JANE DOE",
		},
	}
	ZeroizeMap(m)
	if m["number"] != "" || m["CVV"] != "" {
		t.Fatalf("top-level fields not blanked: %v", m)
	}
	if m["amount"] != 5000 {
		t.Fatalf("non-sensitive field touched: %v", m["amount"])
	}
	nested := m["card"].(map[string]interface{})
	if nested["expiry_month"] != "" || nested["name"] != "" {
		t.Fatalf("nested fields not blanked: %v", nested)
	}
}

func TestWithZeroizesOnSuccess(t *testing.T) {
	d := sample()
	err := With(d, func(c *Data) error {
		if c.Number == "" {
			t.Fatal("card should be intact inside the scope")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertZeroized(t, d)
}

func TestWithZeroizesOnError(t *testing.T) {
	d := sample()
	want := errors.New("tokenize failed")
	if err := With(d, func(*Data) error { return want }); !errors.Is(err, want) {
		t.Fatalf("error not propagated: %v", err)
	}
	assertZeroized(t, d)
}

func TestWithZeroizesOnPanic(t *testing.T) {
	d := sample()
	func() {
		defer func() { recover() }()
		_ = With(d, func(*Data) error { panic("boom") })
	}()
	assertZeroized(t, d)
}

func TestComplete(t *testing.T) {
	if !sample().Complete() {
		t.Fatal("sample should be complete")
	}
	d := sample()
	d.CVV = ""
	if d.Complete() {
		t.Fatal("missing cvv should not be complete")
	}
	var nilData *Data
	if nilData.Complete() {
		t.Fatal("nil card should not be complete")
	}
}

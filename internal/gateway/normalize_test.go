package gateway

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"local number gets country code", "11987654321", "5511987654321"},
		{"already qualified untouched", "5511987654321", "5511987654321"},
		{"strips provider suffix", "5511987654321@s.whatsapp.net", "5511987654321"},
		{"strips formatting", "+55 (11) 98765-4321", "5511987654321"},
		{"local with formatting", "(11) 98765-4321", "5511987654321"},
		{"landline 10 digits", "1133334444", "551133334444"},
		{"empty input", "", ""},
		{"no digits at all", "abc@xyz", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tt.raw, "55")
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"11987654321",
		"5511987654321",
		"5511987654321@s.whatsapp.net",
		"+1 202 555 0123",
		"987654321",
		"",
	}

	for _, cc := range []string{"55", "1"} {
		for _, in := range inputs {
			once := Normalize(in, cc)
			twice := Normalize(once, cc)
			if once != twice {
				t.Errorf("Normalize not idempotent for %q with cc %s: %q != %q", in, cc, once, twice)
			}
		}
	}
}

package pix

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"strips diacritics and uppercases", "Café Überraschung", 25, "CAFE UBERRASCHUNG"},
		{"cedilla", "Açaí do João", 25, "ACAI DO JOAO"},
		{"drops symbols", "Loja *Viva* & Cia.", 25, "LOJA VIVA  CIA"},
		{"truncates", "PADARIA DO BAIRRO CENTRAL", 10, "PADARIA DO"},
		{"digits kept", "Loja 24h", 25, "LOJA 24H"},
		{"everything stripped", "🎉✨", 25, ""},
		{"empty input", "", 25, ""},
		{"invalid utf8 does not panic", "abc\xff\xfedef", 25, "ABCDEF"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in, tc.maxLen); got != tc.want {
				t.Errorf("Normalize(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
			}
		})
	}
}

package scraper

import "testing"

func TestAcceptLanguageFor(t *testing.T) {
	cases := []struct {
		locale string
		want   string
	}{
		{"en-GB", "en-GB,en;q=0.9"},
		{"fr-FR", "fr-FR,fr;q=0.9"},
		{"en", "en"},
		{"", "en-GB,en;q=0.9"},
	}

	for _, tc := range cases {
		if got := acceptLanguageFor(tc.locale); got != tc.want {
			t.Errorf("acceptLanguageFor(%q) = %q; want %q", tc.locale, got, tc.want)
		}
	}
}

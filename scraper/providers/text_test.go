package providers

import "testing"

func TestFindMonthlyPrice(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Full Fibre 100 from £29.99 a month", "£29.99"},
		{"£31 per month, £9.99 upfront", "£31"},
		{"Now only £26/month for 24 months", "£26"},
		{"£1,234.56 setup fee", "£1,234.56"},
		{"no prices here", ""},
	}
	for _, tc := range cases {
		if got := findMonthlyPrice(tc.text); got != tc.want {
			t.Errorf("findMonthlyPrice(%q) = %q; want %q", tc.text, got, tc.want)
		}
	}
}

func TestFindSpeedCollapsesRanges(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Average speed 5-13Mbps", "13 Mbps"},
		{"900Mb average download", "900 Mbps"},
		{"Up to 1.1 Gbps", "1.1 Gbps"},
		{"1 Gig fibre", "1 Gbps"},
		{"unlimited calls", ""},
	}
	for _, tc := range cases {
		if got := findSpeed(tc.text); got != tc.want {
			t.Errorf("findSpeed(%q) = %q; want %q", tc.text, got, tc.want)
		}
	}
}

func TestFindContract(t *testing.T) {
	if got := findContract("24 month contract, £0 setup"); got != "24 month" {
		t.Errorf("findContract = %q; want %q", got, "24 month")
	}
	if got := findContract("2 year deal"); got != "2 year" {
		t.Errorf("findContract = %q; want %q", got, "2 year")
	}
}

func TestPriceNear(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"24 month contract. £9.99 upfront cost.", "£9.99"},
		{"Upfront cost: £19.99 applies.", "£19.99"},
		{"£31 a month, £9.99 upfront", "£9.99"},
		{"no upfront charges", ""},
		{"nothing relevant here", ""},
	}
	for _, tc := range cases {
		if got := priceNear(tc.text, "upfront", 40); got != tc.want {
			t.Errorf("priceNear(%q) = %q; want %q", tc.text, got, tc.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("\n  \n  Fast 150\n£24 a month"); got != "Fast 150" {
		t.Errorf("firstLine = %q; want %q", got, "Fast 150")
	}
}

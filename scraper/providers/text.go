package providers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceTokenRe    = regexp.MustCompile(`£\s*\d+(?:,\d{3})*(?:\.\d+)?`)
	monthlyPriceRe  = regexp.MustCompile(`(?i)(£\s*\d+(?:\.\d+)?)\s*(?:a\s+|per\s+|/\s*)?month`)
	speedRangeRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*(mb|gb|mbps|gbps)`)
	speedTokenRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(gbps|gb|gig|mbps|mb)`)
	contractTokenRe = regexp.MustCompile(`(?i)\d+\s*(?:month|year)s?`)
)

// findMonthlyPrice pulls the first "£NN.NN a month" style token out of a
// text blob, falling back to the first bare £ amount.
func findMonthlyPrice(text string) string {
	if m := monthlyPriceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return priceTokenRe.FindString(text)
}

// findSpeed pulls the best download-speed token from a text blob. Marketing
// copy often quotes a range ("5-13Mbps"); the upper bound is the advertised
// speed, so ranges collapse to their maximum.
func findSpeed(text string) string {
	if m := speedRangeRe.FindStringSubmatch(text); m != nil {
		hi, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			return fmt.Sprintf("%s %s", trimFloat(hi), normaliseSpeedUnit(m[3]))
		}
	}
	if m := speedTokenRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s", m[1], normaliseSpeedUnit(m[2]))
	}
	return ""
}

// findContract pulls the first "N months"/"N years" token from a text blob.
func findContract(text string) string {
	return contractTokenRe.FindString(text)
}

func normaliseSpeedUnit(unit string) string {
	switch strings.ToLower(unit) {
	case "gb", "gig", "gbps":
		return "Gbps"
	default:
		return "Mbps"
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// priceNear returns the £ token closest to the first occurrence of marker:
// the last one within n characters before it, else the first within n
// characters after. Handles both "£9.99 upfront" and "upfront cost £9.99".
func priceNear(text, marker string, n int) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(marker))
	if idx < 0 {
		return ""
	}

	start := idx - n
	if start < 0 {
		start = 0
	}
	if before := priceTokenRe.FindAllString(text[start:idx], -1); len(before) > 0 {
		return before[len(before)-1]
	}

	end := idx + len(marker) + n
	if end > len(text) {
		end = len(text)
	}
	return priceTokenRe.FindString(text[idx:end])
}

// firstLine returns the first non-empty trimmed line of a text blob.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

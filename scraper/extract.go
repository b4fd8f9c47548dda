package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"broadband-compare/models"
)

var (
	// numberRegexp captures the first decimal-capable numeric substring.
	numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// intRegexp captures a bare integer.
	intRegexp = regexp.MustCompile(`\d+`)
	// postcodeRegexp is the canonical UK postcode pattern.
	postcodeRegexp = regexp.MustCompile(`^[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}$`)
)

// ExtractPrice strips currency symbols and thousands separators and returns
// the first numeric substring as a currency amount. Multiple numbers in the
// input resolve to the first match; adversarial text is not a supported case.
func ExtractPrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}

	cleaned := strings.NewReplacer("£", "", "$", "", "€", "", ",", "").Replace(text)
	match := numberRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// ExtractSpeed returns the speed in Mbps from text. A gigabit unit marker
// ("Gb", "Gbps", "gig") multiplies the matched number by 1000.
func ExtractSpeed(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}

	match := numberRegexp.FindString(text)
	if match == "" {
		return 0, false
	}

	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "gb") || strings.Contains(lower, "gig") {
		return val * 1000, true
	}
	return val, true
}

// ExtractContractLength returns the contract length in months. Year units
// multiply the matched integer by 12.
func ExtractContractLength(text string) (int, bool) {
	if text == "" {
		return 0, false
	}

	match := intRegexp.FindString(text)
	if match == "" {
		return 0, false
	}

	months, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}

	if strings.Contains(strings.ToLower(text), "year") {
		months *= 12
	}
	return months, true
}

// ValidatePostcode reports whether the string matches the canonical UK
// postcode pattern (case and surrounding whitespace insensitive).
func ValidatePostcode(postcode string) bool {
	return postcodeRegexp.MatchString(strings.ToUpper(strings.TrimSpace(postcode)))
}

// ClassifyTechnology derives the technology type for a deal. An explicit
// page label wins; otherwise the download speed decides, with sub-100 Mbps
// classed as FTTC and everything faster as FTTP.
func ClassifyTechnology(label string, downloadSpeed float64) models.Technology {
	lower := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(lower, "cable"):
		return models.TechCable
	case strings.Contains(lower, "copper"):
		return models.TechCopper
	case strings.Contains(lower, "part fibre"):
		return models.TechFTTC
	case strings.Contains(lower, "full fibre"), strings.Contains(lower, "fibre"):
		return models.TechFTTP
	}

	if downloadSpeed <= 0 {
		return models.TechUnknown
	}
	if downloadSpeed < 100 {
		return models.TechFTTC
	}
	return models.TechFTTP
}

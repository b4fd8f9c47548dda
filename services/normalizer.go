package services

import (
	"sort"
	"time"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/scraper"
	"broadband-compare/utils"
)

// Validation bounds for a plausible UK broadband deal.
const (
	maxMonthlyPrice  = 200.0
	minDownloadMbps  = 10.0
	maxDownloadMbps  = 10000.0
	fallbackContract = 24
)

// Normalizer coerces raw extracted card values into canonical Deal records
// and rejects incomplete or implausible ones. The coercion reuses the field
// extractors, which pass already-numeric text through unchanged, so
// normalization is idempotent.
type Normalizer struct {
	providers config.Providers
	logger    *utils.Logger
}

// NewNormalizer creates a Normalizer. The provider map supplies
// per-provider contract-length defaults.
func NewNormalizer(providers config.Providers, logger *utils.Logger) *Normalizer {
	return &Normalizer{providers: providers, logger: logger}
}

// Process normalizes and validates every card, dropping rejects with a
// logged reason. It never fails: worst case is an empty slice.
func (n *Normalizer) Process(cards []models.RawCard) []models.Deal {
	deals := make([]models.Deal, 0, len(cards))

	for _, card := range cards {
		deal := n.Normalize(card)
		if reason, ok := n.Validate(deal); !ok {
			n.logger.Warn("[normalizer] Dropping %q from %s: %s", card.DealName, card.Provider, reason)
			continue
		}
		deals = append(deals, deal)
	}

	n.logger.Info("[normalizer] Accepted %d/%d deals", len(deals), len(cards))
	return deals
}

// Normalize coerces one raw card into a Deal: numeric fields run through
// the extraction cleaners, defaults fill the gaps, the total contract cost
// is computed when derivable, and a fresh extraction timestamp is stamped
// when the card carries none.
func (n *Normalizer) Normalize(card models.RawCard) models.Deal {
	deal := models.Deal{
		Provider:         card.Provider,
		DealName:         card.DealName,
		DataAllowance:    card.DataAllowance,
		Promotions:       card.Promotions,
		Postcode:         card.Postcode,
		Address:          card.Address,
		URL:              card.URL,
		InstallationType: "Standard",
		ExtractedAt:      card.ScrapedAt,
	}

	if price, ok := scraper.ExtractPrice(card.MonthlyPrice); ok {
		deal.MonthlyPrice = price
	}
	if upfront, ok := scraper.ExtractPrice(card.UpfrontCost); ok {
		deal.UpfrontCost = upfront
	}
	if speed, ok := scraper.ExtractSpeed(card.DownloadSpeed); ok {
		deal.DownloadSpeed = speed
	}
	if upload, ok := scraper.ExtractSpeed(card.UploadSpeed); ok {
		deal.UploadSpeed = &upload
	}

	if months, ok := scraper.ExtractContractLength(card.ContractLength); ok {
		deal.ContractLength = months
	} else {
		deal.ContractLength = n.defaultContract(card.Provider)
	}

	if deal.DataAllowance == "" {
		deal.DataAllowance = "Unlimited"
	}
	if deal.DealName == "" {
		deal.DealName = "Broadband"
	}

	deal.Technology = card.Technology
	if deal.Technology == "" || deal.Technology == models.TechUnknown {
		deal.Technology = scraper.ClassifyTechnology("", deal.DownloadSpeed)
	}

	if deal.MonthlyPrice > 0 && deal.ContractLength > 0 {
		deal.TotalContractCost = deal.MonthlyPrice*float64(deal.ContractLength) + deal.UpfrontCost
	}

	if deal.ExtractedAt.IsZero() {
		deal.ExtractedAt = time.Now()
	}

	return deal
}

// Validate reports whether a deal is retainable: provider, monthly price,
// and download speed must all be present and within plausible ranges.
func (n *Normalizer) Validate(deal models.Deal) (string, bool) {
	if deal.Provider == "" {
		return "missing provider", false
	}
	if deal.MonthlyPrice <= 0 {
		return "missing or non-positive monthly price", false
	}
	if deal.MonthlyPrice > maxMonthlyPrice {
		return "monthly price out of range", false
	}
	if deal.DownloadSpeed == 0 {
		return "missing download speed", false
	}
	if deal.DownloadSpeed < minDownloadMbps || deal.DownloadSpeed > maxDownloadMbps {
		return "download speed out of range", false
	}
	return "", true
}

func (n *Normalizer) defaultContract(provider string) int {
	if pc, ok := n.providers[provider]; ok && pc.DefaultContractMonths > 0 {
		return pc.DefaultContractMonths
	}
	return fallbackContract
}

// SortDeals orders deals by the given field, ascending or descending.
// Equal keys keep their original relative order; unknown fields leave the
// slice untouched.
func SortDeals(deals []models.Deal, field string, ascending bool) []models.Deal {
	key := func(d models.Deal) float64 {
		switch field {
		case "monthly_price":
			return d.MonthlyPrice
		case "download_speed":
			return d.DownloadSpeed
		case "total_contract_cost":
			return d.TotalContractCost
		case "contract_length":
			return float64(d.ContractLength)
		default:
			return 0
		}
	}

	sorted := make([]models.Deal, len(deals))
	copy(sorted, deals)

	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return key(sorted[i]) < key(sorted[j])
		}
		return key(sorted[i]) > key(sorted[j])
	})
	return sorted
}

package providers

import (
	"fmt"
	"strings"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// skyTiers is the current Sky Broadband line-up. Sky's shop page renders
// package pricing as loose marketing copy rather than structured cards, so
// extraction anchors on the known package names and reads the price and
// contract copy that follows each one.
var skyTiers = []struct {
	name string
	mbps float64
}{
	{"Gigafast+", 5000},
	{"Gigafast", 900},
	{"Full Fibre 300", 300},
	{"Full Fibre 100", 145},
}

// skyStrategy scrapes Sky's shop page. There is no postcode gate on the
// public pricing page, so the postcode and address steps are no-ops and the
// postcode is only stamped onto the output records.
type skyStrategy struct{}

func (skyStrategy) Name() string { return models.ProviderSky }

func (skyStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error { return nil }

func (skyStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error { return nil }

func (s skyStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	cfg := rt.Session.Config

	container := cfg.DealContainerSelector
	if container == "" {
		container = "main"
	}
	if _, found, err := rt.Locator.WaitAny([]string{container, "body"}, 20*time.Second); err != nil {
		return nil, err
	} else if !found {
		return nil, fmt.Errorf("sky: page body never rendered")
	}

	text, ok, err := rt.Locator.Text(container)
	if err != nil {
		return nil, err
	}
	if !ok {
		text, _, err = rt.Locator.Text("body")
		if err != nil {
			return nil, err
		}
	}

	cards := parseSkyText(text)
	now := time.Now()
	url := rt.Session.CurrentURL()
	for i := range cards {
		cards[i].Postcode = postcode
		cards[i].URL = url
		cards[i].ScrapedAt = now
	}
	if len(cards) == 0 {
		rt.Logger.Warn("[sky] No known package names found in page text")
	}
	return cards, nil
}

// parseSkyText extracts best-effort deals from the page's visible text: one
// record per known tier name present, priced from the nearest
// "£NN a month" copy after the name.
func parseSkyText(text string) []models.RawCard {
	var cards []models.RawCard

	for _, tier := range skyTiers {
		idx := findTierName(text, tier.name)
		if idx < 0 {
			continue
		}

		window := text[idx+len(tier.name):]
		if len(window) > 400 {
			window = window[:400]
		}

		price := findMonthlyPrice(window)
		if price == "" {
			continue
		}

		card := models.RawCard{
			Provider:      models.ProviderSky,
			DealName:      tier.name,
			MonthlyPrice:  price,
			DownloadSpeed: fmt.Sprintf("%s Mbps", trimFloat(tier.mbps)),
			Technology:    models.TechFTTP,
		}
		if contract := findContract(window); contract != "" {
			card.ContractLength = contract
		}
		cards = append(cards, card)
	}
	return cards
}

// findTierName locates a tier name in the page text, refusing matches that
// are really a longer tier ("Gigafast" inside "Gigafast+").
func findTierName(text, name string) int {
	lower := strings.ToLower(text)
	needle := strings.ToLower(name)

	from := 0
	for {
		rel := strings.Index(lower[from:], needle)
		if rel < 0 {
			return -1
		}
		idx := from + rel
		end := idx + len(needle)
		if end >= len(text) || text[end] != '+' {
			return idx
		}
		from = end
	}
}

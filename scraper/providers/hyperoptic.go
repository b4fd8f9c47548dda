package providers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// Hyperoptic's package page has no stable card markup at all; cards are
// whichever leaf-most blocks mention both a £ amount and a speed. The
// network is full fibre throughout and the headline speeds are symmetric
// from 150 Mbps up.
type hyperopticStrategy struct{}

func (hyperopticStrategy) Name() string { return models.ProviderHyperoptic }

func (hyperopticStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error {
	return scraper.EnterPostcodeDefault(rt, postcode)
}

func (hyperopticStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error {
	return scraper.SelectAddressDefault(rt, preferred)
}

func (h hyperopticStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	// Leaf-most blocks only: a block qualifies when it mentions price and
	// speed but none of its element children do on their own.
	script := `(() => {
		const qualifies = el => {
			const t = el.innerText || '';
			return t.includes('£') && /\d\s*(Mb|Gb)/i.test(t) && t.length < 600;
		};
		const blocks = [];
		for (const el of document.querySelectorAll('div, section, article, li')) {
			if (!qualifies(el)) continue;
			if (Array.from(el.children).some(qualifies)) continue;
			blocks.push(el.innerText.trim());
		}
		return blocks;
	})()`

	var blobs []string
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		if err := rt.Locator.Eval(script, &blobs); err != nil {
			return nil, err
		}
		if len(blobs) > 0 {
			break
		}
		select {
		case <-time.After(rt.Config.PollInterval()):
		case <-rt.Session.Ctx().Done():
			return nil, fmt.Errorf("hyperoptic: session closed while waiting for packages: %w", rt.Session.Ctx().Err())
		}
	}
	if len(blobs) == 0 {
		return nil, fmt.Errorf("hyperoptic: no priced package blocks found")
	}

	var cards []models.RawCard
	seen := make(map[string]bool)
	for _, blob := range blobs {
		card, ok := parseHyperopticBlock(blob)
		if !ok {
			continue
		}
		key := card.DealName + "|" + card.MonthlyPrice
		if seen[key] {
			continue
		}
		seen[key] = true

		card.Provider = models.ProviderHyperoptic
		card.Postcode = postcode
		card.URL = rt.Session.CurrentURL()
		card.ScrapedAt = time.Now()
		cards = append(cards, card)
	}
	return cards, nil
}

// parseHyperopticBlock turns one package block's text into a raw card. The
// first line is the package name; symmetric upload is assumed at and above
// 100 Mbps, matching how the packages are sold.
func parseHyperopticBlock(text string) (models.RawCard, bool) {
	card := models.RawCard{
		DealName:       firstLine(text),
		MonthlyPrice:   findMonthlyPrice(text),
		DownloadSpeed:  findSpeed(text),
		ContractLength: findContract(text),
		Technology:     models.TechFTTP,
	}
	if card.MonthlyPrice == "" || card.DownloadSpeed == "" {
		return models.RawCard{}, false
	}

	if mbps, ok := speedInMbps(card.DownloadSpeed); ok && mbps >= 100 {
		card.UploadSpeed = card.DownloadSpeed
	}
	return card, true
}

// speedInMbps converts a "N Mbps"/"N Gbps" token to megabits.
func speedInMbps(token string) (float64, bool) {
	fields := strings.Fields(token)
	if len(fields) != 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(fields[1], "Gbps") {
		value *= 1000
	}
	return value, true
}

package providers

import (
	"fmt"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// vodafoneStrategy is entirely configuration-driven: the default postcode
// and address sub-protocols cover the availability checker, and every card
// field comes from the extraction map in the provider config.
type vodafoneStrategy struct{}

func (vodafoneStrategy) Name() string { return models.ProviderVodafone }

func (vodafoneStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error {
	return scraper.EnterPostcodeDefault(rt, postcode)
}

func (vodafoneStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error {
	return scraper.SelectAddressDefault(rt, preferred)
}

func (s vodafoneStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	cfg := rt.Session.Config
	if len(cfg.ExtractionMap) == 0 {
		return nil, fmt.Errorf("vodafone: extraction map not configured")
	}

	htmls, err := enumerateCards(rt, cfg.DealContainerSelector)
	if err != nil {
		return nil, err
	}

	var cards []models.RawCard
	for _, html := range htmls {
		doc, err := scraper.CardDocument(html)
		if err != nil {
			rt.Logger.Debug("[vodafone] Unparseable card skipped: %v", err)
			continue
		}

		card := newCard(models.ProviderVodafone, postcode, rt)
		card.DealName = scraper.SelectText(doc, cfg.ExtractionMap["deal_name"])
		card.MonthlyPrice = scraper.SelectText(doc, cfg.ExtractionMap["monthly_price"])
		card.UpfrontCost = scraper.SelectText(doc, cfg.ExtractionMap["upfront_cost"])
		card.DownloadSpeed = scraper.SelectText(doc, cfg.ExtractionMap["download_speed"])
		card.UploadSpeed = scraper.SelectText(doc, cfg.ExtractionMap["upload_speed"])
		card.ContractLength = scraper.SelectText(doc, cfg.ExtractionMap["contract_length"])
		card.DataAllowance = scraper.SelectText(doc, cfg.ExtractionMap["data_allowance"])
		card.Promotions = scraper.SelectText(doc, cfg.ExtractionMap["promotions"])

		if card.DealName == "" && card.MonthlyPrice == "" {
			continue
		}
		cards = append(cards, card)
	}

	return cards, nil
}

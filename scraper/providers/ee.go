package providers

import (
	"fmt"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// EE's landing page fronts the deal grid with a "See your deals" call to
// action, and the grid itself splits contract terms across tabs with only
// the active panel's cards in the live DOM.
type eeStrategy struct{}

var eeCTASelectors = []string{
	"a[data-testid='see-your-deals']",
	"a[href*='broadband/deals']",
	"button[data-testid='broadband-cta']",
}

var eeTermTabs = []struct {
	term      string
	selectors []string
}{
	{"24 months", []string{"button[id*='24-month']", "[role='tab'][data-term='24']"}},
	{"12 months", []string{"button[id*='12-month']", "[role='tab'][data-term='12']"}},
}

func (eeStrategy) Name() string { return models.ProviderEE }

// Navigate loads the landing page and clicks through the CTA. A missing
// CTA is fine: deep links land straight on the grid.
func (e eeStrategy) Navigate(rt *scraper.Runtime) error {
	if err := rt.Session.Navigate(""); err != nil {
		return err
	}

	clicked, err := rt.Locator.ClickAny(eeCTASelectors, 6*time.Second)
	if err != nil {
		return err
	}
	if clicked {
		rt.Logger.Debug("[ee] Clicked deals call-to-action")
	}
	return nil
}

func (eeStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error {
	return scraper.EnterPostcodeDefault(rt, postcode)
}

func (eeStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error {
	return scraper.SelectAddressDefault(rt, preferred)
}

func (e eeStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	cfg := rt.Session.Config
	if _, found, err := rt.Locator.WaitAny([]string{cfg.DealContainerSelector}, 20*time.Second); err != nil {
		return nil, err
	} else if !found {
		return nil, fmt.Errorf("ee: deal grid never rendered")
	}

	var cards []models.RawCard
	for _, tab := range eeTermTabs {
		clicked, err := rt.Locator.ClickAny(tab.selectors, 4*time.Second)
		if err != nil {
			return nil, err
		}
		if !clicked && len(cards) > 0 {
			// Only one term tab exists; the first pass already covered it.
			break
		}
		if clicked {
			time.Sleep(rt.Config.PollInterval() * 2)
		}

		extracted, err := e.extractActivePanel(rt, postcode, tab.term)
		if err != nil {
			return nil, err
		}
		cards = append(cards, extracted...)
	}

	return dedupeByNameAndTerm(cards), nil
}

// eeCardReadAttempts bounds how often a single card is re-read while its
// name or price has not rendered yet.
const eeCardReadAttempts = 3

// extractActivePanel reads the cards inside the currently visible tab
// panel. Inactive panels stay mounted but hidden, so the selector pins the
// visible one. EE fills name and price into already-mounted cards a beat
// after they appear, so a card that parses incomplete is re-read a bounded
// number of times before it is discarded.
func (e eeStrategy) extractActivePanel(rt *scraper.Runtime, postcode, term string) ([]models.RawCard, error) {
	cfg := rt.Session.Config

	selector := fmt.Sprintf("[role='tabpanel']:not([aria-hidden='true']) %s", cfg.DealContainerSelector)
	if n, err := rt.Locator.Count(selector); err != nil {
		return nil, err
	} else if n == 0 {
		// No tab structure on the page; read the grid directly.
		selector = cfg.DealContainerSelector
	}

	htmls, err := enumerateCards(rt, selector)
	if err != nil {
		return nil, err
	}
	source := scraper.NewDOMCardSource(rt.Session, selector)

	var cards []models.RawCard
	for i, html := range htmls {
		i := i
		card, ok := eeCardWithRetries(html, term, func() (string, error) {
			return source.HTML(i)
		}, eeCardReadAttempts, rt.Config.PollInterval())
		if !ok {
			rt.Logger.Debug("[ee] Card %d never rendered its name and price, dropped", i)
			continue
		}

		card.Provider = models.ProviderEE
		card.Postcode = postcode
		card.URL = rt.Session.CurrentURL()
		card.ScrapedAt = time.Now()
		cards = append(cards, card)
	}
	return cards, nil
}

// eeCardWithRetries parses a card, re-fetching its HTML up to attempts
// total parses while the essential fields are still blank.
func eeCardWithRetries(html, term string, refetch func() (string, error), attempts int, wait time.Duration) (models.RawCard, bool) {
	card, ok := parseEECard(html, term)
	for attempt := 1; !ok && attempt < attempts; attempt++ {
		time.Sleep(wait)
		fresh, err := refetch()
		if err != nil || fresh == "" {
			continue
		}
		card, ok = parseEECard(fresh, term)
	}
	return card, ok
}

// parseEECard pulls the deal fields out of one card's HTML. ok is false
// while the name or monthly price has not rendered.
func parseEECard(html, term string) (models.RawCard, bool) {
	doc, err := scraper.CardDocument(html)
	if err != nil {
		return models.RawCard{}, false
	}

	text := doc.Text()
	card := models.RawCard{
		DealName: firstNonEmpty(
			scraper.SelectText(doc, "[data-testid$='_name']"),
			scraper.SelectText(doc, "h3"),
			firstLine(text),
		),
		MonthlyPrice:   findMonthlyPrice(text),
		DownloadSpeed:  findSpeed(text),
		ContractLength: findContract(text),
		UpfrontCost:    priceNear(text, "upfront", 40),
	}
	if card.ContractLength == "" {
		card.ContractLength = term
	}

	return card, card.DealName != "" && card.MonthlyPrice != ""
}

package providers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// BT renders its checker and deal grid as a single-page app with two
// quirks: an availability-error modal that appears intermittently after
// postcode submission, and a contract-length toggle that defaults to 24
// months and asks for confirmation when switched to 12.
type btStrategy struct{}

var btErrorModalSelectors = []string{
	"[data-testid='error-modal'] button",
	"div[role='alertdialog'] button",
	".availability-error button.close",
}

var btPromoRe = regexp.MustCompile(`(?im)^.*(price (?:rise|change)|guarantee|reward card|free .*|half price.*)$`)

func (btStrategy) Name() string { return models.ProviderBT }

func (b btStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error {
	if err := scraper.EnterPostcodeDefault(rt, postcode); err != nil {
		return err
	}

	// The availability checker sometimes throws an error modal even for
	// valid postcodes. Closing it and failing this attempt sends the
	// machine back around the postcode/address retry loop.
	dismissed, err := rt.Locator.ClickAny(btErrorModalSelectors, 2*time.Second)
	if err != nil {
		return err
	}
	if dismissed {
		return fmt.Errorf("bt: availability error modal after postcode entry")
	}
	return nil
}

// SelectAddress drives BT's button-list address picker rather than a
// <select>. A missing list means the postcode resolved to a single address.
func (b btStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error {
	cfg := rt.Session.Config
	if cfg.AddressSelector == "" {
		return nil
	}

	_, found, err := rt.Locator.WaitAny([]string{cfg.AddressSelector}, 8*time.Second)
	if err != nil {
		return err
	}
	if !found {
		rt.Logger.Debug("[bt] No address list rendered, single match assumed")
		return nil
	}

	want := strings.ToLower(strings.TrimSpace(preferred))
	script := fmt.Sprintf(`(() => {
		const buttons = Array.from(document.querySelectorAll(%q));
		if (!buttons.length) return false;
		const want = %q;
		let target = buttons[0];
		if (want) {
			const hit = buttons.find(b => (b.innerText || '').toLowerCase().includes(want));
			if (hit) target = hit;
		}
		target.click();
		return true;
	})()`, cfg.AddressSelector, want)

	var clicked bool
	if err := rt.Locator.Eval(script, &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("bt: address list rendered but no entry was clickable")
	}
	return nil
}

func (b btStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	// Technology is labelled once at page level, not per card.
	tech := b.pageTechnology(rt)

	cards, err := b.extractTerm(rt, postcode, tech, "24 months")
	if err != nil {
		return nil, err
	}

	twelve, err := b.switchTo12Month(rt)
	if err != nil {
		return nil, err
	}
	if twelve {
		extra, err := b.extractTerm(rt, postcode, tech, "12 months")
		if err != nil {
			rt.Logger.Warn("[bt] 12-month extraction failed, keeping 24-month deals: %v", err)
		} else {
			cards = append(cards, extra...)
		}
	}

	return dedupeByNameAndTerm(cards), nil
}

// extractTerm enumerates the lazily-loaded card grid for the currently
// selected contract term.
func (b btStrategy) extractTerm(rt *scraper.Runtime, postcode, tech, term string) ([]models.RawCard, error) {
	htmls, err := enumerateCards(rt, rt.Session.Config.DealContainerSelector)
	if err != nil {
		return nil, err
	}

	var cards []models.RawCard
	for _, html := range htmls {
		card, ok := b.parseCard(html)
		if !ok {
			continue
		}
		card.Postcode = postcode
		card.URL = rt.Session.CurrentURL()
		card.ScrapedAt = time.Now()
		card.Provider = models.ProviderBT
		if card.ContractLength == "" {
			card.ContractLength = term
		}
		if tech != "" && card.Technology == "" {
			card.Technology = classifyLabel(tech)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// switchTo12Month toggles the contract-length control and confirms the
// change when BT interposes its "your deals will change" modal. Returns
// whether the 12-month grid is now showing.
func (b btStrategy) switchTo12Month(rt *scraper.Runtime) (bool, error) {
	toggled, err := rt.Locator.ClickAny([]string{
		"button[data-testid='contract-length-12']",
		"input[id*='12-month']",
		"label[for*='12-month']",
	}, 5*time.Second)
	if err != nil || !toggled {
		return false, err
	}

	confirmed, err := rt.Locator.ClickAny([]string{
		"[role='dialog'] button[data-testid='confirm']",
		"button[data-testid='confirm-contract-change']",
	}, 4*time.Second)
	if err != nil {
		return false, err
	}
	if confirmed {
		rt.Logger.Debug("[bt] Contract change confirmed")
	}

	// Let the grid re-render before re-enumerating.
	time.Sleep(rt.Config.PollInterval() * 3)
	return true, nil
}

func (b btStrategy) pageTechnology(rt *scraper.Runtime) string {
	for _, sel := range []string{"[data-testid='technology-label']", ".broadband-type-label"} {
		if text, ok, err := rt.Locator.Text(sel); err == nil && ok {
			return text
		}
	}
	return ""
}

func (b btStrategy) parseCard(html string) (models.RawCard, bool) {
	doc, err := scraper.CardDocument(html)
	if err != nil {
		return models.RawCard{}, false
	}

	text := doc.Text()
	card := models.RawCard{
		DealName:       firstNonEmpty(scraper.SelectText(doc, "[data-testid='product-name']"), scraper.SelectText(doc, "h3"), scraper.SelectText(doc, "h2")),
		MonthlyPrice:   findMonthlyPrice(text),
		DownloadSpeed:  findSpeed(text),
		ContractLength: findContract(text),
	}
	card.UpfrontCost = firstNonEmpty(priceNear(text, "upfront", 40), priceNear(text, "setup", 40))
	if promos := btPromoRe.FindAllString(text, 3); len(promos) > 0 {
		for i := range promos {
			promos[i] = strings.TrimSpace(promos[i])
		}
		card.Promotions = strings.Join(promos, "; ")
	}

	return card, card.DealName != "" && card.MonthlyPrice != ""
}

func dedupeByNameAndTerm(cards []models.RawCard) []models.RawCard {
	seen := make(map[string]bool, len(cards))
	out := cards[:0]
	for _, c := range cards {
		key := strings.ToLower(c.DealName) + "|" + strings.ToLower(c.ContractLength)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// classifyLabel maps a page-level technology label onto the canonical
// technology names.
func classifyLabel(label string) models.Technology {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "full fibre") || strings.Contains(lower, "fttp"):
		return models.TechFTTP
	case strings.Contains(lower, "fibre"):
		return models.TechFTTC
	case strings.Contains(lower, "cable"):
		return models.TechCable
	case strings.Contains(lower, "copper") || strings.Contains(lower, "adsl"):
		return models.TechCopper
	}
	return ""
}

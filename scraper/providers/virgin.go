package providers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// Virgin Media's availability checker silently drops characters when typed
// too fast, so postcode entry is verified by reading the field back. The
// deal page has no stable card markup; cards are found by walking up from
// the "Add to basket" buttons.
type virginStrategy struct{}

// virginPlanRe matches Virgin's plan naming (M125, M250, Gig1 and so on).
// Anything without such a name is an upsell panel, not a broadband deal.
var virginPlanRe = regexp.MustCompile(`\b(M\d{2,4}|Gig\d+)\b`)

const virginMaxCards = 4

func (virginStrategy) Name() string { return models.ProviderVirgin }

func (v virginStrategy) EnterPostcode(rt *scraper.Runtime, postcode string) error {
	cfg := rt.Session.Config
	pc := strings.ToUpper(strings.TrimSpace(postcode))
	input := firstSelector(cfg.PostcodeInputSelector)

	// Type and verify; the checker's input masking can eat characters.
	entered := false
	for attempt := 0; attempt < 3; attempt++ {
		if err := rt.Locator.TypeSlowly(input, pc, 120*time.Millisecond); err != nil {
			return err
		}
		echoed, err := v.inputValue(rt, input)
		if err != nil {
			return err
		}
		if normalisePostcode(echoed) == normalisePostcode(pc) {
			entered = true
			break
		}
		rt.Logger.Debug("[virgin_media] Postcode echo mismatch (%q), retyping", echoed)
	}
	if !entered {
		return fmt.Errorf("virgin: postcode field never echoed %q back", pc)
	}

	clicked, err := rt.Locator.ClickAny(strings.Split(cfg.PostcodeSubmitSelector, ", "), 8*time.Second)
	if err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("virgin: availability button not clickable")
	}

	// Either outcome counts as progress: an exact match banner or an
	// address disambiguation list.
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		body, _, err := rt.Locator.Text("body")
		if err != nil {
			return err
		}
		if strings.Contains(body, "We've found a match") || strings.Contains(body, "Select your address") {
			return nil
		}
		time.Sleep(rt.Config.PollInterval())
	}
	return fmt.Errorf("virgin: no availability response after postcode submit")
}

// SelectAddress confirms the matched address. Exact matches only need the
// "Let's go" confirmation; ambiguous postcodes get an address list first.
func (v virginStrategy) SelectAddress(rt *scraper.Runtime, preferred string) error {
	body, _, err := rt.Locator.Text("body")
	if err != nil {
		return err
	}

	if strings.Contains(body, "Select your address") {
		want := strings.ToLower(strings.TrimSpace(preferred))
		script := fmt.Sprintf(`(() => {
			const items = Array.from(document.querySelectorAll("[data-cy='address-item'], ul.address-list li"));
			if (!items.length) return false;
			const want = %q;
			let target = items[0];
			if (want) {
				const hit = items.find(i => (i.innerText || '').toLowerCase().includes(want));
				if (hit) target = hit;
			}
			(target.querySelector('button, a') || target).click();
			return true;
		})()`, want)

		var clicked bool
		if err := rt.Locator.Eval(script, &clicked); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("virgin: address list present but unclickable")
		}
	}

	clicked, err := rt.Locator.ClickAny([]string{
		"button[data-cy='lets-go-button']",
		"a[data-cy='lets-go-button']",
	}, 10*time.Second)
	if err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("virgin: confirmation button never appeared")
	}
	return nil
}

func (v virginStrategy) ExtractCards(rt *scraper.Runtime, postcode string) ([]models.RawCard, error) {
	// Wait for at least one basket button, then harvest card containers by
	// walking up from each button. The synthetic uid dedupes containers
	// shared by several buttons.
	script := `(() => {
		const htmls = [];
		const seen = new Set();
		const buttons = Array.from(document.querySelectorAll('button, a'))
			.filter(b => (b.innerText || '').toLowerCase().includes('add to basket'));
		for (const btn of buttons) {
			let node = btn;
			for (let hops = 0; hops < 8 && node.parentElement; hops++) {
				node = node.parentElement;
				if ((node.innerText || '').includes('£')) break;
			}
			if (!node.dataset.bcUid) node.dataset.bcUid = Math.random().toString(36).slice(2);
			if (seen.has(node.dataset.bcUid)) continue;
			seen.add(node.dataset.bcUid);
			htmls.push(node.outerHTML);
		}
		return htmls;
	})()`

	var htmls []string
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		if err := rt.Locator.Eval(script, &htmls); err != nil {
			return nil, err
		}
		if len(htmls) > 0 {
			break
		}
		select {
		case <-time.After(rt.Config.PollInterval()):
		case <-rt.Session.Ctx().Done():
			return nil, fmt.Errorf("virgin: session closed while waiting for deals: %w", rt.Session.Ctx().Err())
		}
	}
	if len(htmls) == 0 {
		return nil, fmt.Errorf("virgin: no basket buttons found on deal page")
	}

	var cards []models.RawCard
	for _, html := range htmls {
		if len(cards) >= virginMaxCards {
			break
		}
		doc, err := scraper.CardDocument(html)
		if err != nil {
			continue
		}
		text := doc.Text()

		plan := virginPlanRe.FindString(text)
		if plan == "" {
			continue
		}

		card := newCard(models.ProviderVirgin, postcode, rt)
		card.DealName = plan
		card.MonthlyPrice = findMonthlyPrice(text)
		card.DownloadSpeed = findSpeed(text)
		card.ContractLength = findContract(text)
		card.Technology = models.TechCable
		card.UpfrontCost = priceNear(text, "setup", 40)

		if card.MonthlyPrice == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (v virginStrategy) inputValue(rt *scraper.Runtime, sel string) (string, error) {
	var value string
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? (el.value || '') : ''; })()`, sel)
	if err := rt.Locator.Eval(script, &value); err != nil {
		return "", err
	}
	return value, nil
}

func normalisePostcode(pc string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(pc), " ", ""))
}

// firstSelector takes the first candidate from a comma-joined selector
// list, for operations that need exactly one target.
func firstSelector(list string) string {
	if idx := strings.Index(list, ","); idx >= 0 {
		return strings.TrimSpace(list[:idx])
	}
	return strings.TrimSpace(list)
}

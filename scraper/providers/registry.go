package providers

import (
	"fmt"
	"time"

	"broadband-compare/models"
	"broadband-compare/scraper"
)

// ForName returns the scrape strategy registered for a provider identifier.
func ForName(name string) (scraper.Strategy, bool) {
	switch name {
	case models.ProviderSky:
		return skyStrategy{}, true
	case models.ProviderBT:
		return btStrategy{}, true
	case models.ProviderEE:
		return eeStrategy{}, true
	case models.ProviderHyperoptic:
		return hyperopticStrategy{}, true
	case models.ProviderVirgin:
		return virginStrategy{}, true
	case models.ProviderVodafone:
		return vodafoneStrategy{}, true
	}
	return nil, false
}

// enumerateCards runs the shared lazy-load enumeration over the provider's
// configured card selector and returns each unique card's outer HTML.
func enumerateCards(rt *scraper.Runtime, selector string) ([]string, error) {
	if selector == "" {
		return nil, fmt.Errorf("no deal container selector configured")
	}

	if _, found, err := rt.Locator.WaitAny([]string{selector}, 20*time.Second); err != nil {
		return nil, err
	} else if !found {
		return nil, fmt.Errorf("deal list %q never rendered", selector)
	}

	enum := &scraper.Enumerator{
		Source:       scraper.NewDOMCardSource(rt.Session, selector),
		StableCycles: rt.Config.StableCycles,
		Interval:     rt.Config.PollInterval(),
		Logger:       rt.Logger,
	}
	return enum.Enumerate(rt.Session.Ctx())
}

// newCard seeds a RawCard with the run-level fields every provider stamps.
func newCard(provider, postcode string, rt *scraper.Runtime) models.RawCard {
	return models.RawCard{
		Provider:  provider,
		Postcode:  postcode,
		URL:       rt.Session.CurrentURL(),
		ScrapedAt: time.Now(),
	}
}

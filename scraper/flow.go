package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// EnterPostcodeDefault is the common postcode-entry sub-protocol: locate
// the configured input, clear it, type the postcode character-paced, submit,
// then wait for either the address step or the deal list to signal progress.
func EnterPostcodeDefault(rt *Runtime, postcode string) error {
	pc := strings.ToUpper(strings.TrimSpace(postcode))
	cfg := rt.Session.Config

	if cfg.PostcodeInputSelector == "" {
		// Providers without a postcode gate fall straight through.
		return nil
	}

	rt.Logger.Info("[%s] Entering postcode %s", rt.Session.Provider, pc)

	if err := rt.Locator.TypeSlowly(cfg.PostcodeInputSelector, pc, 80*time.Millisecond); err != nil {
		return err
	}

	submitted := false
	if cfg.PostcodeSubmitSelector != "" {
		clicked, err := rt.Locator.ClickAny(strings.Split(cfg.PostcodeSubmitSelector, ", "), 8*time.Second)
		if err != nil {
			return err
		}
		submitted = clicked
	}
	if !submitted {
		// Enter keypress as submit fallback.
		ctx, cancel := context.WithTimeout(rt.Session.Ctx(), 5*time.Second)
		defer cancel()
		if err := chromedp.Run(ctx,
			chromedp.SendKeys(cfg.PostcodeInputSelector, "\r", chromedp.ByQuery),
		); err != nil && rt.Session.Ctx().Err() != nil {
			return fmt.Errorf("postcode submit: session closed: %w", rt.Session.Ctx().Err())
		}
	}

	// Progress signal: an address picker, or the deal list rendering
	// directly for single-match postcodes.
	signals := []string{cfg.AddressSelector, cfg.DealContainerSelector}
	sel, found, err := rt.Locator.WaitAny(signals, 15*time.Second)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no address list or deal list appeared after postcode entry")
	}
	rt.Logger.Debug("[%s] Postcode accepted (signal %s)", rt.Session.Provider, sel)
	return nil
}

// SelectAddressDefault is the common address-selection sub-protocol for
// <select>-style pickers: prefer an exact or substring match against the
// caller's preferred address, otherwise take the first non-placeholder
// option. Providers that auto-confirm a single match skip this entirely
// when the picker never renders.
func SelectAddressDefault(rt *Runtime, preferred string) error {
	cfg := rt.Session.Config
	if cfg.AddressSelector == "" {
		return nil
	}

	present, err := waitPresent(rt, cfg.AddressSelector, 10*time.Second)
	if err != nil {
		return err
	}
	if !present {
		// Single-match UI state: the provider resolved the address itself.
		rt.Logger.Debug("[%s] No address picker rendered, single match assumed", rt.Session.Provider)
		return nil
	}

	options, err := selectOptions(rt, cfg.AddressSelector)
	if err != nil {
		return err
	}
	if len(options) == 0 {
		return fmt.Errorf("address picker rendered with no options")
	}

	choice := pickAddress(options, preferred)
	if choice < 0 {
		return fmt.Errorf("no selectable address among %d options", len(options))
	}

	script := fmt.Sprintf(`(() => {
		const sel = document.querySelector(%q);
		if (!sel) return false;
		sel.selectedIndex = %d;
		sel.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, cfg.AddressSelector, choice)

	var ok bool
	ctx, cancel := context.WithTimeout(rt.Session.Ctx(), 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil || !ok {
		if rt.Session.Ctx().Err() != nil {
			return fmt.Errorf("address select: session closed: %w", rt.Session.Ctx().Err())
		}
		return fmt.Errorf("address select: option %d could not be applied", choice)
	}

	rt.Logger.Info("[%s] Selected address: %s", rt.Session.Provider, strings.TrimSpace(options[choice]))
	return nil
}

// pickAddress chooses an option index: preferred substring match first,
// then the first non-placeholder entry. Returns -1 when nothing qualifies.
func pickAddress(options []string, preferred string) int {
	if preferred != "" {
		want := strings.ToLower(strings.TrimSpace(preferred))
		for i, opt := range options {
			if strings.Contains(strings.ToLower(opt), want) {
				return i
			}
		}
	}

	for i, opt := range options {
		if !isPlaceholderOption(opt) {
			return i
		}
	}
	return -1
}

// isPlaceholderOption recognises the "Select your address…" style prompts
// providers put in position zero.
func isPlaceholderOption(opt string) bool {
	lower := strings.ToLower(strings.TrimSpace(opt))
	if lower == "" {
		return true
	}
	for _, marker := range []string{"select", "choose", "please", "--"} {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

func selectOptions(rt *Runtime, sel string) ([]string, error) {
	var options []string
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return [];
		return Array.from(el.options || []).map(o => (o.textContent || '').trim());
	})()`, sel)

	ctx, cancel := context.WithTimeout(rt.Session.Ctx(), 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &options)); err != nil {
		if rt.Session.Ctx().Err() != nil {
			return nil, fmt.Errorf("address options: session closed: %w", rt.Session.Ctx().Err())
		}
		return nil, nil
	}
	return options, nil
}

func waitPresent(rt *Runtime, sel string, deadline time.Duration) (bool, error) {
	_, found, err := rt.Locator.WaitAny([]string{sel}, deadline)
	return found, err
}

package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"broadband-compare/utils"
)

// Locator finds and interacts with elements that may not exist yet, may be
// hidden, or may sit behind an overlay. A not-found outcome is a boolean,
// never an error; errors mean the browser session itself is gone.
type Locator struct {
	provider       string
	ctx            context.Context
	logger         *utils.Logger
	pollInterval   time.Duration
	attemptTimeout time.Duration
}

// NewLocator builds a Locator bound to a session context. pollInterval is
// the sleep between search cycles; each individual selector attempt is
// capped well below the overall deadline so one broken selector cannot
// stall the whole search.
func NewLocator(s *Session, logger *utils.Logger, pollInterval time.Duration) *Locator {
	return &Locator{
		provider:       s.Provider,
		ctx:            s.Ctx(),
		logger:         logger,
		pollInterval:   pollInterval,
		attemptTimeout: 3500 * time.Millisecond,
	}
}

// ClickAny tries the selector candidates in priority order until the
// deadline, escalating per attempt through plain click, forced
// (JS-dispatched) click, and script-injected click, then sweeping
// same-origin iframes. Returns true once any candidate was clicked.
func (l *Locator) ClickAny(candidates []string, deadline time.Duration) (bool, error) {
	end := time.Now().Add(deadline)

	for {
		for _, sel := range candidates {
			if sel == "" {
				continue
			}
			clicked, err := l.tryClick(sel)
			if err != nil {
				return false, err
			}
			if clicked {
				return true, nil
			}
		}

		clicked, err := l.clickInFrames(candidates)
		if err != nil {
			return false, err
		}
		if clicked {
			return true, nil
		}

		if time.Now().After(end) {
			return false, nil
		}
		select {
		case <-time.After(l.pollInterval):
		case <-l.ctx.Done():
			return false, fmt.Errorf("locator %s: session closed: %w", l.provider, l.ctx.Err())
		}
	}
}

// WaitAny polls until one of the candidate selectors matches an element,
// returning the selector that hit. A false result means the deadline passed
// with no match.
func (l *Locator) WaitAny(candidates []string, deadline time.Duration) (string, bool, error) {
	end := time.Now().Add(deadline)

	for {
		for _, sel := range candidates {
			if sel == "" {
				continue
			}
			present, err := l.present(sel)
			if err != nil {
				return "", false, err
			}
			if present {
				return sel, true, nil
			}
		}

		if time.Now().After(end) {
			return "", false, nil
		}
		select {
		case <-time.After(l.pollInterval):
		case <-l.ctx.Done():
			return "", false, fmt.Errorf("locator %s: session closed: %w", l.provider, l.ctx.Err())
		}
	}
}

// TypeSlowly clears the input matched by sel and types text one character
// at a time. Character pacing is required by at least one provider's
// client-side postcode validation.
func (l *Locator) TypeSlowly(sel, text string, perChar time.Duration) error {
	ctx, cancel := context.WithTimeout(l.ctx, 15*time.Second)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.SetValue(sel, "", chromedp.ByQuery),
	)
	if err != nil {
		return l.sessionOrSoft(err, "type: focus %s", sel)
	}

	for _, r := range text {
		if err := chromedp.Run(ctx, chromedp.SendKeys(sel, string(r), chromedp.ByQuery)); err != nil {
			return l.sessionOrSoft(err, "type: key %q into %s", r, sel)
		}
		time.Sleep(perChar)
	}
	return nil
}

// Count returns how many elements currently match sel.
func (l *Locator) Count(sel string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, sel)
	if err := l.eval(script, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Text returns the trimmed inner text of the first element matching sel.
func (l *Locator) Text(sel string) (string, bool, error) {
	var out string
	script := fmt.Sprintf(
		`(() => { const el = document.querySelector(%q); return el ? (el.innerText || '').trim() : ''; })()`, sel)
	if err := l.eval(script, &out); err != nil {
		return "", false, err
	}
	return out, out != "", nil
}

// Eval runs a page script and decodes the result into res. Soft-failure
// semantics match the rest of the Locator: a script error against a live
// session leaves res zero-valued.
func (l *Locator) Eval(script string, res interface{}) error {
	return l.eval(script, res)
}

// tryClick escalates through the click fallback chain for one selector.
func (l *Locator) tryClick(sel string) (bool, error) {
	present, err := l.present(sel)
	if err != nil || !present {
		return false, err
	}

	// (a) plain click, with the element scrolled into view.
	ctx, cancel := context.WithTimeout(l.ctx, l.attemptTimeout)
	err = chromedp.Run(ctx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
	)
	cancel()
	if err == nil {
		l.logger.Debug("[%s] Clicked %s", l.provider, sel)
		return true, nil
	}
	if l.sessionDead() {
		return false, fmt.Errorf("locator %s: session closed: %w", l.provider, l.ctx.Err())
	}

	// (b) forced click: dispatch the event directly, bypassing overlap checks.
	var forced bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, view: window }));
		return true;
	})()`, sel)
	if err := l.eval(script, &forced); err != nil {
		return false, err
	}
	if forced {
		l.logger.Debug("[%s] Force-clicked %s", l.provider, sel)
		return true, nil
	}

	// (c) script-injected click on the element handle.
	var scripted bool
	script = fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, sel)
	if err := l.eval(script, &scripted); err != nil {
		return false, err
	}
	if scripted {
		l.logger.Debug("[%s] Script-clicked %s", l.provider, sel)
	}
	return scripted, nil
}

// clickInFrames sweeps same-origin child iframes for any candidate and
// script-clicks the first hit. Cross-origin frames throw inside the
// injected function and are skipped.
func (l *Locator) clickInFrames(candidates []string) (bool, error) {
	selectors := make([]string, 0, len(candidates))
	for _, sel := range candidates {
		if sel != "" {
			selectors = append(selectors, fmt.Sprintf("%q", sel))
		}
	}
	if len(selectors) == 0 {
		return false, nil
	}

	var clicked bool
	script := fmt.Sprintf(`(() => {
		const selectors = [%s];
		for (const frame of document.querySelectorAll('iframe')) {
			let doc;
			try { doc = frame.contentDocument; } catch (e) { continue; }
			if (!doc) continue;
			for (const sel of selectors) {
				const el = doc.querySelector(sel);
				if (el) { el.click(); return true; }
			}
		}
		return false;
	})()`, strings.Join(selectors, ", "))

	if err := l.eval(script, &clicked); err != nil {
		return false, err
	}
	if clicked {
		l.logger.Debug("[%s] Clicked inside iframe", l.provider)
	}
	return clicked, nil
}

func (l *Locator) present(sel string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
	if err := l.eval(script, &found); err != nil {
		return false, err
	}
	return found, nil
}

// eval runs a script with a short timeout; evaluation failures against a
// live session are soft (result left zero-valued), a dead session is not.
func (l *Locator) eval(script string, res interface{}) error {
	ctx, cancel := context.WithTimeout(l.ctx, l.attemptTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Evaluate(script, res)); err != nil {
		if l.sessionDead() {
			return fmt.Errorf("locator %s: session closed: %w", l.provider, l.ctx.Err())
		}
		l.logger.Debug("[%s] Evaluate failed: %v", l.provider, err)
	}
	return nil
}

func (l *Locator) sessionDead() bool {
	return l.ctx.Err() != nil
}

func (l *Locator) sessionOrSoft(err error, format string, args ...any) error {
	if l.sessionDead() {
		return fmt.Errorf("locator %s: session closed: %w", l.provider, l.ctx.Err())
	}
	l.logger.Debug("[%s] "+format+": %v", append([]any{l.provider}, append(args, err)...)...)
	return nil
}

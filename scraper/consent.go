package scraper

import (
	"time"

	"broadband-compare/utils"
)

// ConsentOutcome is the terminal state of a consent-banner search.
type ConsentOutcome int

const (
	ConsentDismissed ConsentOutcome = iota
	ConsentNotFound
)

// defaultConsentSelectors is the priority-ordered fallback list: accept
// framed ahead of reject ahead of generic class-based selectors. Provider
// config selectors are appended behind these.
var defaultConsentSelectors = []string{
	"#onetrust-accept-btn-handler",
	"button#onetrust-accept-btn-handler",
	"button[data-test*='accept']",
	"button[aria-label*='accept']",
	"#onetrust-reject-all-handler",
	"button#onetrust-reject-all-handler",
	"button[data-test*='reject']",
	"button[aria-label*='reject']",
	".cookie-banner button",
	".ot-sdk-container button",
	"[data-testid='modal-close']",
	"button[aria-label='Close']",
}

// ConsentDismisser polls for cookie banners and interstitial modals and
// dismisses the first one it can click, across the main document and every
// same-origin child frame.
type ConsentDismisser struct {
	provider  string
	locator   *Locator
	logger    *utils.Logger
	selectors []string
	deadline  time.Duration
}

// NewConsentDismisser merges the default selector list with the provider's
// configured cookie selectors. The banner can appear late, so the search
// polls until the configured deadline (observed default 12s).
func NewConsentDismisser(s *Session, loc *Locator, logger *utils.Logger, deadline time.Duration) *ConsentDismisser {
	return &ConsentDismisser{
		provider:  s.Provider,
		locator:   loc,
		logger:    logger,
		selectors: MergeConsentSelectors(s.Config.CookieSelectors),
		deadline:  deadline,
	}
}

// MergeConsentSelectors appends provider-specific selectors behind the
// built-in priority list, dropping duplicates and empties.
func MergeConsentSelectors(extra []string) []string {
	merged := make([]string, 0, len(defaultConsentSelectors)+len(extra))
	seen := make(map[string]struct{})

	for _, sel := range append(append([]string{}, defaultConsentSelectors...), extra...) {
		if sel == "" {
			continue
		}
		if _, dup := seen[sel]; dup {
			continue
		}
		seen[sel] = struct{}{}
		merged = append(merged, sel)
	}
	return merged
}

// Dismiss runs the search to its deadline. A NOT_FOUND outcome is
// non-fatal: many providers render their product list with the banner
// unhandled, and callers re-invoke Dismiss before interactions a banner
// could be covering.
func (d *ConsentDismisser) Dismiss() (ConsentOutcome, error) {
	clicked, err := d.locator.ClickAny(d.selectors, d.deadline)
	if err != nil {
		return ConsentNotFound, err
	}
	if clicked {
		d.logger.Info("[%s] Consent banner dismissed", d.provider)
		return ConsentDismissed, nil
	}
	d.logger.Info("[%s] No consent banner found within %v", d.provider, d.deadline)
	return ConsentNotFound, nil
}

// Recheck is a short follow-up sweep used right before interacting with
// elements a late banner could block. It never waits the full deadline.
func (d *ConsentDismisser) Recheck() error {
	_, err := d.locator.ClickAny(d.selectors, 1500*time.Millisecond)
	return err
}

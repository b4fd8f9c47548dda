package scraper

import (
	"context"
	"fmt"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/utils"
)

// State names the steps of a provider scrape.
type State string

const (
	StateInit            State = "INIT"
	StateNavigated       State = "NAVIGATED"
	StateConsentHandled  State = "CONSENT_HANDLED"
	StatePostcodeEntered State = "POSTCODE_ENTERED"
	StateAddressSelected State = "ADDRESS_SELECTED"
	StateDealsPageReady  State = "DEALS_PAGE_READY"
	StateCardsExtracted  State = "CARDS_EXTRACTED"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// ConsentHandler is the slice of the consent dismisser the machine runner
// drives: a full sweep after navigation and short re-checks before
// postcode interactions.
type ConsentHandler interface {
	Dismiss() (ConsentOutcome, error)
	Recheck() error
}

// Runtime bundles the shared machinery a provider strategy drives: the
// browser session, the resilient locator, the consent dismisser, and the
// process configuration. One Runtime exists per provider per run.
type Runtime struct {
	Session *Session
	Locator *Locator
	Consent ConsentHandler
	Config  *config.Config
	Logger  *utils.Logger
}

// Strategy is the per-provider capability set. Providers differ in flow
// detail but share the navigation contract the Runner enforces; each method
// corresponds to one (or a small group of) machine state transitions.
type Strategy interface {
	// Name returns the provider identifier.
	Name() string

	// EnterPostcode locates the postcode input, clears it, types the
	// postcode, submits, and waits for either an address list or a
	// no-address-needed signal.
	EnterPostcode(rt *Runtime, postcode string) error

	// SelectAddress resolves the address-disambiguation step. preferred may
	// be empty, in which case the first non-placeholder option is taken.
	// Providers without an address step implement this as a no-op.
	SelectAddress(rt *Runtime, preferred string) error

	// ExtractCards pulls raw product cards from the deals page, including
	// any contract-term switching and lazy-load enumeration the provider
	// needs.
	ExtractCards(rt *Runtime, postcode string) ([]models.RawCard, error)
}

// Navigator is an optional Strategy extension for providers whose landing
// flow is more than a plain page load (CTA click-throughs and the like).
type Navigator interface {
	Navigate(rt *Runtime) error
}

// Runner drives a Strategy through the common state sequence
// INIT → NAVIGATED → CONSENT_HANDLED → POSTCODE_ENTERED → ADDRESS_SELECTED
// → DEALS_PAGE_READY → CARDS_EXTRACTED → DONE, with FAILED absorbing any
// unrecoverable step and a bounded retry loop around the postcode/address
// pair for providers that throw error overlays mid-flow.
type Runner struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewRunner creates a Runner with the given policy configuration.
func NewRunner(cfg *config.Config, logger *utils.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes one provider scrape to completion. Any error or panic is
// contained here: the provider contributes zero records and the machine
// lands in FAILED, never propagating to sibling providers.
func (r *Runner) Run(ctx context.Context, rt *Runtime, strat Strategy, postcode, address string) (cards []models.RawCard, err error) {
	name := strat.Name()
	state := StateInit

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("[%s] Scrape panicked in state %s: %v", name, state, rec)
			cards = nil
			err = fmt.Errorf("%s: panic in state %s: %v", name, state, rec)
		}
	}()

	advance := func(next State) error {
		if cerr := ctx.Err(); cerr != nil {
			state = StateFailed
			return fmt.Errorf("%s: cancelled before %s: %w", name, next, cerr)
		}
		r.logger.Debug("[%s] %s → %s", name, state, next)
		state = next
		return nil
	}

	// INIT → NAVIGATED
	if err := advance(StateNavigated); err != nil {
		return nil, err
	}
	navRetry := &utils.RetryConfig{
		MaxAttempts: r.cfg.MaxRetries,
		BaseDelay:   r.cfg.RetryBaseDelay(),
		Logger:      r.logger,
	}
	err = navRetry.Do(ctx, name+" navigation", func() error {
		if nav, ok := strat.(Navigator); ok {
			return nav.Navigate(rt)
		}
		return rt.Session.Navigate("")
	})
	if err != nil {
		state = StateFailed
		return nil, fmt.Errorf("%s: navigation: %w", name, err)
	}

	// NAVIGATED → CONSENT_HANDLED (dismissal failure is non-fatal)
	if err := advance(StateConsentHandled); err != nil {
		return nil, err
	}
	if _, cerr := rt.Consent.Dismiss(); cerr != nil {
		state = StateFailed
		return nil, fmt.Errorf("%s: consent: %w", name, cerr)
	}

	// POSTCODE_ENTERED ⇄ ADDRESS_SELECTED retry loop. A provider-side error
	// overlay anywhere in the pair restarts both steps.
	retry := &utils.RetryConfig{
		MaxAttempts: r.cfg.PostcodeAttempts,
		BaseDelay:   r.cfg.RetryBaseDelay(),
		Logger:      r.logger,
	}
	err = retry.Do(ctx, name+" postcode/address", func() error {
		if err := advance(StatePostcodeEntered); err != nil {
			return err
		}
		if err := rt.Consent.Recheck(); err != nil {
			return err
		}
		if err := strat.EnterPostcode(rt, postcode); err != nil {
			return err
		}

		if err := advance(StateAddressSelected); err != nil {
			return err
		}
		return strat.SelectAddress(rt, address)
	})
	if err != nil {
		state = StateFailed
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	// ADDRESS_SELECTED → DEALS_PAGE_READY → CARDS_EXTRACTED
	if err := advance(StateDealsPageReady); err != nil {
		return nil, err
	}
	if err := advance(StateCardsExtracted); err != nil {
		return nil, err
	}
	cards, err = strat.ExtractCards(rt, postcode)
	if err != nil {
		state = StateFailed
		return nil, fmt.Errorf("%s: card extraction: %w", name, err)
	}

	if err := advance(StateDone); err != nil {
		return nil, err
	}
	r.logger.Info("[%s] Scrape complete: %d raw cards", name, len(cards))
	return cards, nil
}

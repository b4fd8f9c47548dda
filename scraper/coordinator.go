package scraper

import (
	"context"
	"sync"
	"time"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/utils"
)

// ProviderRunner is one scrapeable provider. The live implementation owns a
// browser session per call; tests substitute scripted runners.
type ProviderRunner interface {
	Provider() string
	Scrape(ctx context.Context, postcode, address string) ([]models.RawCard, error)
}

// Processor turns raw cards into validated deals. Implemented by the
// services normalizer; declared here so the coordinator can invoke it
// without depending on that package.
type Processor interface {
	Process(cards []models.RawCard) []models.Deal
}

// SessionRunner binds a Strategy to its per-run browser session lifecycle:
// the session is created when the scrape starts and released on every exit
// path, and no error escapes past this boundary as a panic.
type SessionRunner struct {
	cfg      *config.Config
	name     string
	provider models.ProviderConfig
	strategy Strategy
	logger   *utils.Logger
}

// NewSessionRunner wires a provider strategy into a runnable unit.
func NewSessionRunner(cfg *config.Config, name string, pc models.ProviderConfig, strat Strategy, logger *utils.Logger) *SessionRunner {
	return &SessionRunner{cfg: cfg, name: name, provider: pc, strategy: strat, logger: logger}
}

// Provider returns the provider identifier.
func (r *SessionRunner) Provider() string { return r.name }

// Scrape runs the provider's state machine inside a fresh browser session.
func (r *SessionRunner) Scrape(ctx context.Context, postcode, address string) ([]models.RawCard, error) {
	session, err := NewSession(ctx, r.cfg, r.name, r.provider, r.logger)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	locator := NewLocator(session, r.logger, r.cfg.PollInterval())
	rt := &Runtime{
		Session: session,
		Locator: locator,
		Consent: NewConsentDismisser(session, locator, r.logger, r.cfg.ConsentDeadline()),
		Config:  r.cfg,
		Logger:  r.logger,
	}

	return NewRunner(r.cfg, r.logger).Run(ctx, rt, r.strategy, postcode, address)
}

// Coordinator runs the per-provider state machines sequentially or
// concurrently, aggregates their raw cards, and hands the union to the
// processor. A failing provider contributes zero records; the run as a
// whole never fails, it just returns fewer (possibly zero) deals.
type Coordinator struct {
	cfg       *config.Config
	logger    *utils.Logger
	runners   []ProviderRunner
	processor Processor
}

// NewCoordinator creates a Coordinator over the given providers.
func NewCoordinator(cfg *config.Config, runners []ProviderRunner, processor Processor, logger *utils.Logger) *Coordinator {
	return &Coordinator{cfg: cfg, logger: logger, runners: runners, processor: processor}
}

// Run scrapes every configured provider and returns the combined,
// normalized deal list. An empty list is a reportable outcome, not an
// error.
func (c *Coordinator) Run(ctx context.Context, postcode, address string, concurrent bool) []models.Deal {
	var raw []models.RawCard
	if concurrent {
		c.logger.Info("Running %d provider(s) concurrently", len(c.runners))
		raw = c.runConcurrent(ctx, postcode, address)
	} else {
		c.logger.Info("Running %d provider(s) sequentially", len(c.runners))
		raw = c.runSequential(ctx, postcode, address)
	}

	if len(raw) == 0 {
		c.logger.Warn("No provider produced any cards")
		return nil
	}

	return c.processor.Process(raw)
}

// runSequential runs providers one at a time with a fixed inter-provider
// delay to reduce correlated load.
func (c *Coordinator) runSequential(ctx context.Context, postcode, address string) []models.RawCard {
	var all []models.RawCard

	for i, runner := range c.runners {
		if ctx.Err() != nil {
			c.logger.Warn("Run cancelled before %s", runner.Provider())
			break
		}

		cards := c.runOne(ctx, runner, postcode, address)
		all = append(all, cards...)

		if i < len(c.runners)-1 {
			select {
			case <-time.After(c.cfg.InterProviderDelay()):
			case <-ctx.Done():
			}
		}
	}
	return all
}

// runConcurrent launches every provider as an independent task on a
// rate-limited pool, each owning an isolated browser session. Results
// aggregate in completion order.
func (c *Coordinator) runConcurrent(ctx context.Context, postcode, address string) []models.RawCard {
	pool := utils.NewWorkerPool(len(c.runners), 500)

	var mu sync.Mutex
	var all []models.RawCard

	for _, runner := range c.runners {
		r := runner
		pool.Submit(ctx, func() {
			cards := c.runOne(ctx, r, postcode, address)
			mu.Lock()
			all = append(all, cards...)
			mu.Unlock()
		})
	}
	pool.Wait()
	return all
}

// runOne isolates a single provider: errors and panics are logged and
// converted into an empty contribution.
func (c *Coordinator) runOne(ctx context.Context, runner ProviderRunner, postcode, address string) (cards []models.RawCard) {
	name := runner.Provider()

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("✗ %s panicked: %v", name, rec)
			cards = nil
		}
	}()

	c.logger.Info("Starting %s scraper...", name)
	cards, err := runner.Scrape(ctx, postcode, address)
	if err != nil {
		c.logger.Error("✗ %s failed: %v", name, err)
		return nil
	}

	if len(cards) == 0 {
		c.logger.Warn("✗ %s: no deals found", name)
	} else {
		c.logger.Info("✓ %s: %d deals found", name, len(cards))
	}
	return cards
}

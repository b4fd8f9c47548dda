package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/utils"
)

// scriptedStrategy drives the runner without a browser: it implements
// Navigator so the Session is never touched.
type scriptedStrategy struct {
	navCalls     int
	enterCalls   int
	selectCalls  int
	extractCalls int

	failEnterTimes  int
	failSelectTimes int
	panicExtract    bool
	cards           []models.RawCard
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Navigate(rt *Runtime) error {
	s.navCalls++
	return nil
}

func (s *scriptedStrategy) EnterPostcode(rt *Runtime, postcode string) error {
	s.enterCalls++
	if s.enterCalls <= s.failEnterTimes {
		return errors.New("availability error overlay")
	}
	return nil
}

func (s *scriptedStrategy) SelectAddress(rt *Runtime, preferred string) error {
	s.selectCalls++
	if s.selectCalls <= s.failSelectTimes {
		return errors.New("address list vanished")
	}
	return nil
}

func (s *scriptedStrategy) ExtractCards(rt *Runtime, postcode string) ([]models.RawCard, error) {
	s.extractCalls++
	if s.panicExtract {
		panic("target frame detached")
	}
	return s.cards, nil
}

type stubConsent struct {
	dismissCalls int
	recheckCalls int
}

func (c *stubConsent) Dismiss() (ConsentOutcome, error) {
	c.dismissCalls++
	return ConsentNotFound, nil
}

func (c *stubConsent) Recheck() error {
	c.recheckCalls++
	return nil
}

func testMachineConfig() *config.Config {
	return &config.Config{
		PostcodeAttempts: 5,
		MaxRetries:       1,
		RetryBaseDelayMs: 1,
		PollIntervalMs:   1,
	}
}

func testRuntime(consent *stubConsent) *Runtime {
	return &Runtime{
		Consent: consent,
		Config:  testMachineConfig(),
		Logger:  utils.NewLoggerAt(utils.LevelError),
	}
}

func TestRunnerRetriesPostcodeAddressPair(t *testing.T) {
	strat := &scriptedStrategy{
		failEnterTimes: 2,
		cards:          []models.RawCard{{Provider: "scripted", DealName: "A"}},
	}
	consent := &stubConsent{}
	runner := NewRunner(testMachineConfig(), utils.NewLoggerAt(utils.LevelError))

	cards, err := runner.Run(context.Background(), testRuntime(consent), strat, "SW1A 1AA", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards; want 1", len(cards))
	}

	if strat.enterCalls != 3 {
		t.Errorf("enterCalls = %d; want 3 (two failures then success)", strat.enterCalls)
	}
	if strat.selectCalls != 1 {
		t.Errorf("selectCalls = %d; want 1 (only after postcode succeeds)", strat.selectCalls)
	}
	if strat.extractCalls != 1 {
		t.Errorf("extractCalls = %d; want 1", strat.extractCalls)
	}
	if consent.dismissCalls != 1 {
		t.Errorf("dismissCalls = %d; want 1", consent.dismissCalls)
	}
	if consent.recheckCalls != 3 {
		t.Errorf("recheckCalls = %d; want one per postcode attempt", consent.recheckCalls)
	}
}

func TestRunnerAddressFailureRestartsPair(t *testing.T) {
	strat := &scriptedStrategy{
		failSelectTimes: 1,
		cards:           []models.RawCard{{Provider: "scripted", DealName: "A"}},
	}
	runner := NewRunner(testMachineConfig(), utils.NewLoggerAt(utils.LevelError))

	if _, err := runner.Run(context.Background(), testRuntime(&stubConsent{}), strat, "SW1A 1AA", ""); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// A failed address selection re-runs postcode entry too.
	if strat.enterCalls != 2 || strat.selectCalls != 2 {
		t.Errorf("enterCalls = %d, selectCalls = %d; want 2, 2", strat.enterCalls, strat.selectCalls)
	}
}

func TestRunnerExhaustsPostcodeAttempts(t *testing.T) {
	strat := &scriptedStrategy{failEnterTimes: 99}
	runner := NewRunner(testMachineConfig(), utils.NewLoggerAt(utils.LevelError))

	cards, err := runner.Run(context.Background(), testRuntime(&stubConsent{}), strat, "SW1A 1AA", "")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if cards != nil {
		t.Errorf("got cards from a failed run: %v", cards)
	}
	if strat.enterCalls != 5 {
		t.Errorf("enterCalls = %d; want the configured 5 attempts", strat.enterCalls)
	}
	if strat.extractCalls != 0 {
		t.Errorf("extraction ran despite the postcode step failing")
	}
}

func TestRunnerAbsorbsStrategyPanic(t *testing.T) {
	strat := &scriptedStrategy{panicExtract: true}
	runner := NewRunner(testMachineConfig(), utils.NewLoggerAt(utils.LevelError))

	cards, err := runner.Run(context.Background(), testRuntime(&stubConsent{}), strat, "SW1A 1AA", "")
	if err == nil {
		t.Fatal("panicking strategy did not surface as an error")
	}
	if cards != nil {
		t.Errorf("got cards from a panicked run: %v", cards)
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Errorf("error %q does not name the panic", err)
	}
}

func TestRunnerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strat := &scriptedStrategy{}
	runner := NewRunner(testMachineConfig(), utils.NewLoggerAt(utils.LevelError))

	if _, err := runner.Run(ctx, testRuntime(&stubConsent{}), strat, "SW1A 1AA", ""); err == nil {
		t.Fatal("expected cancellation error")
	}
	if strat.navCalls != 0 || strat.enterCalls != 0 {
		t.Errorf("strategy ran under a cancelled context: nav=%d enter=%d", strat.navCalls, strat.enterCalls)
	}
}

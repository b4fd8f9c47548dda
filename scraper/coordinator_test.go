package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/utils"
)

type scriptedRunner struct {
	name  string
	cards []models.RawCard
	err   error
	panic bool
}

func (s *scriptedRunner) Provider() string { return s.name }

func (s *scriptedRunner) Scrape(ctx context.Context, postcode, address string) ([]models.RawCard, error) {
	if s.panic {
		panic("browser crashed")
	}
	return s.cards, s.err
}

// passthroughProcessor converts cards 1:1 so aggregation tests can count
// contributions without normalization rules interfering.
type passthroughProcessor struct{}

func (passthroughProcessor) Process(cards []models.RawCard) []models.Deal {
	deals := make([]models.Deal, 0, len(cards))
	for _, c := range cards {
		deals = append(deals, models.Deal{Provider: c.Provider, DealName: c.DealName})
	}
	return deals
}

func testCoordinatorConfig() *config.Config {
	return &config.Config{
		InterProviderDelayMs: 1,
		PollIntervalMs:       1,
		ConsentDeadlineMs:    1,
		PostcodeAttempts:     1,
		StableCycles:         1,
	}
}

func card(provider, name string) models.RawCard {
	return models.RawCard{Provider: provider, DealName: name}
}

func TestCoordinatorConcurrentIsolatesFailures(t *testing.T) {
	runners := []ProviderRunner{
		&scriptedRunner{name: "sky", cards: []models.RawCard{card("sky", "Full Fibre 100")}},
		&scriptedRunner{name: "bt", err: errors.New("page never loaded")},
		&scriptedRunner{name: "ee", cards: []models.RawCard{card("ee", "Fibre Core"), card("ee", "Fibre Plus")}},
		&scriptedRunner{name: "virgin_media", panic: true},
	}

	c := NewCoordinator(testCoordinatorConfig(), runners, passthroughProcessor{}, utils.NewLoggerAt(utils.LevelError))
	deals := c.Run(context.Background(), "SW1A 1AA", "", true)

	if len(deals) != 3 {
		t.Fatalf("got %d deals; want 3 (failing providers excluded)", len(deals))
	}
	for _, d := range deals {
		if d.Provider == "bt" || d.Provider == "virgin_media" {
			t.Errorf("failed provider %s leaked into results", d.Provider)
		}
	}
}

func TestCoordinatorSequentialAggregates(t *testing.T) {
	runners := []ProviderRunner{
		&scriptedRunner{name: "sky", cards: []models.RawCard{card("sky", "A")}},
		&scriptedRunner{name: "hyperoptic", cards: []models.RawCard{card("hyperoptic", "B")}},
	}

	c := NewCoordinator(testCoordinatorConfig(), runners, passthroughProcessor{}, utils.NewLoggerAt(utils.LevelError))
	deals := c.Run(context.Background(), "SW1A 1AA", "", false)

	if len(deals) != 2 {
		t.Fatalf("got %d deals; want 2", len(deals))
	}
}

func TestCoordinatorAllFailedReturnsEmpty(t *testing.T) {
	runners := []ProviderRunner{
		&scriptedRunner{name: "sky", err: errors.New("boom")},
		&scriptedRunner{name: "bt", err: errors.New("boom")},
	}

	c := NewCoordinator(testCoordinatorConfig(), runners, passthroughProcessor{}, utils.NewLoggerAt(utils.LevelError))
	deals := c.Run(context.Background(), "SW1A 1AA", "", true)

	if len(deals) != 0 {
		t.Errorf("got %d deals; want 0", len(deals))
	}
}

func TestCoordinatorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runners := []ProviderRunner{
		&scriptedRunner{name: "sky", cards: []models.RawCard{card("sky", "A")}},
		&scriptedRunner{name: "bt", cards: []models.RawCard{card("bt", "B")}},
	}

	c := NewCoordinator(testCoordinatorConfig(), runners, passthroughProcessor{}, utils.NewLoggerAt(utils.LevelError))

	done := make(chan []models.Deal, 1)
	go func() { done <- c.Run(ctx, "SW1A 1AA", "", false) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled run did not return promptly")
	}
}

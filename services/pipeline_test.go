package services

import (
	"context"
	"testing"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/scraper"
	"broadband-compare/utils"
)

// mockRunner stands in for a live browser session, yielding scripted cards.
type mockRunner struct {
	name  string
	cards []models.RawCard
}

func (m *mockRunner) Provider() string { return m.name }

func (m *mockRunner) Scrape(ctx context.Context, postcode, address string) ([]models.RawCard, error) {
	return m.cards, nil
}

func TestPipelineEndToEnd(t *testing.T) {
	runner := &mockRunner{
		name: "bt",
		cards: []models.RawCard{
			{
				Provider:       "bt",
				DealName:       "Full Fibre 100",
				MonthlyPrice:   "£29.99 a month",
				UpfrontCost:    "£9.99",
				DownloadSpeed:  "150Mb average speed",
				ContractLength: "24 months",
				Postcode:       "SW1A 1AA",
			},
			{
				Provider:       "bt",
				DealName:       "Full Fibre 500",
				MonthlyPrice:   "£39.99 a month",
				DownloadSpeed:  "500Mb average speed",
				ContractLength: "24 months",
				Postcode:       "SW1A 1AA",
			},
			{
				Provider:     "bt",
				DealName:     "Big Entertainment add-on",
				MonthlyPrice: "£18 a month",
				Postcode:     "SW1A 1AA",
			},
		},
	}

	cfg := &config.Config{
		InterProviderDelayMs: 1,
		PollIntervalMs:       1,
		PostcodeAttempts:     1,
		StableCycles:         1,
	}
	logger := utils.NewLoggerAt(utils.LevelError)
	normalizer := NewNormalizer(config.Providers{}, logger)

	coordinator := scraper.NewCoordinator(cfg, []scraper.ProviderRunner{runner}, normalizer, logger)
	deals := coordinator.Run(context.Background(), "SW1A 1AA", "", false)

	if len(deals) != 2 {
		t.Fatalf("got %d deals; want 2 (speedless card dropped)", len(deals))
	}

	for _, d := range deals {
		if d.TotalContractCost <= 0 {
			t.Errorf("%s: total contract cost not computed: %v", d.DealName, d.TotalContractCost)
		}
		if d.DataAllowance != "Unlimited" {
			t.Errorf("%s: data allowance = %q; want Unlimited", d.DealName, d.DataAllowance)
		}
		if d.ExtractedAt.IsZero() {
			t.Errorf("%s: extraction timestamp missing", d.DealName)
		}
	}

	for _, d := range deals {
		if d.DealName == "Full Fibre 100" {
			want := 29.99*24 + 9.99
			if d.TotalContractCost != want {
				t.Errorf("Full Fibre 100 total = %v; want %v", d.TotalContractCost, want)
			}
		}
	}
}

package services

import (
	"fmt"
	"sort"
	"strings"

	"broadband-compare/models"
	"broadband-compare/utils"
)

// ProviderStats aggregates the deals captured for one provider.
type ProviderStats struct {
	Provider        string
	DealCount       int
	AvgMonthlyPrice float64
	MinMonthlyPrice float64
	MaxMonthlyPrice float64
	AvgDownloadMbps float64
	MaxDownloadMbps float64
}

// Summary is the cross-provider view of one comparison run.
type Summary struct {
	TotalDeals int
	ByProvider []ProviderStats
	Cheapest   *models.Deal
	Fastest    *models.Deal
	BestValue  *models.Deal
}

// BuildSummary computes run statistics over the final deal list.
func BuildSummary(deals []models.Deal) Summary {
	s := Summary{TotalDeals: len(deals)}
	if len(deals) == 0 {
		return s
	}

	grouped := make(map[string][]models.Deal)
	for _, d := range deals {
		grouped[d.Provider] = append(grouped[d.Provider], d)
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := grouped[name]
		stats := ProviderStats{
			Provider:        name,
			DealCount:       len(group),
			MinMonthlyPrice: group[0].MonthlyPrice,
		}
		var priceSum, speedSum float64
		for _, d := range group {
			priceSum += d.MonthlyPrice
			speedSum += d.DownloadSpeed
			if d.MonthlyPrice < stats.MinMonthlyPrice {
				stats.MinMonthlyPrice = d.MonthlyPrice
			}
			if d.MonthlyPrice > stats.MaxMonthlyPrice {
				stats.MaxMonthlyPrice = d.MonthlyPrice
			}
			if d.DownloadSpeed > stats.MaxDownloadMbps {
				stats.MaxDownloadMbps = d.DownloadSpeed
			}
		}
		stats.AvgMonthlyPrice = priceSum / float64(len(group))
		stats.AvgDownloadMbps = speedSum / float64(len(group))
		s.ByProvider = append(s.ByProvider, stats)
	}

	for i := range deals {
		d := &deals[i]
		if s.Cheapest == nil || d.MonthlyPrice < s.Cheapest.MonthlyPrice {
			s.Cheapest = d
		}
		if s.Fastest == nil || d.DownloadSpeed > s.Fastest.DownloadSpeed {
			s.Fastest = d
		}
		// Value score: megabits per pound per month.
		if s.BestValue == nil || valueScore(*d) > valueScore(*s.BestValue) {
			s.BestValue = d
		}
	}

	return s
}

func valueScore(d models.Deal) float64 {
	if d.MonthlyPrice <= 0 {
		return 0
	}
	return d.DownloadSpeed / d.MonthlyPrice
}

// PrintSummary writes the run summary through the logger.
func PrintSummary(logger *utils.Logger, s Summary) {
	logger.Info("%s", strings.Repeat("=", 60))
	logger.Info("COMPARISON SUMMARY: %d deals", s.TotalDeals)
	logger.Info("%s", strings.Repeat("=", 60))

	for _, p := range s.ByProvider {
		logger.Info("%-14s %2d deals | £%.2f-£%.2f/mo (avg £%.2f) | up to %s",
			p.Provider, p.DealCount, p.MinMonthlyPrice, p.MaxMonthlyPrice,
			p.AvgMonthlyPrice, formatMbps(p.MaxDownloadMbps))
	}

	if s.Cheapest != nil {
		logger.Info("Cheapest:   %s %s at £%.2f/mo", s.Cheapest.Provider, s.Cheapest.DealName, s.Cheapest.MonthlyPrice)
	}
	if s.Fastest != nil {
		logger.Info("Fastest:    %s %s at %s", s.Fastest.Provider, s.Fastest.DealName, formatMbps(s.Fastest.DownloadSpeed))
	}
	if s.BestValue != nil {
		logger.Info("Best value: %s %s (%.1f Mbps per £)", s.BestValue.Provider, s.BestValue.DealName, valueScore(*s.BestValue))
	}
}

func formatMbps(mbps float64) string {
	if mbps >= 1000 {
		return fmt.Sprintf("%.1f Gbps", mbps/1000)
	}
	return fmt.Sprintf("%.0f Mbps", mbps)
}

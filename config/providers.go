package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"broadband-compare/models"
)

// Providers is the immutable per-provider configuration map. It is loaded
// once per process and shared read-only by every scrape session.
type Providers map[string]models.ProviderConfig

var (
	providersOnce sync.Once
	providersMap  Providers
	providersErr  error
)

// LoadProviders reads providers.json from the given path (falling back to
// built-in defaults for any provider the file omits). Subsequent calls
// return the same map regardless of path.
func LoadProviders(path string) (Providers, error) {
	providersOnce.Do(func() {
		providersMap, providersErr = readProviders(path)
	})
	return providersMap, providersErr
}

func readProviders(path string) (Providers, error) {
	merged := defaultProviders()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine: the defaults cover all six providers.
		return merged, nil
	}

	var fromFile map[string]models.ProviderConfig
	if err := v.Unmarshal(&fromFile); err != nil {
		return nil, fmt.Errorf("providers config %q: %w", path, err)
	}

	for name, pc := range fromFile {
		base, ok := merged[name]
		if !ok {
			merged[name] = pc
			continue
		}
		merged[name] = overlayProvider(base, pc)
	}

	return merged, nil
}

// overlayProvider applies non-zero fields from override on top of base.
func overlayProvider(base, override models.ProviderConfig) models.ProviderConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.URL != "" {
		out.URL = override.URL
	}
	if override.TimeoutMs > 0 {
		out.TimeoutMs = override.TimeoutMs
	}
	if len(override.CookieSelectors) > 0 {
		out.CookieSelectors = override.CookieSelectors
	}
	if override.PostcodeInputSelector != "" {
		out.PostcodeInputSelector = override.PostcodeInputSelector
	}
	if override.PostcodeSubmitSelector != "" {
		out.PostcodeSubmitSelector = override.PostcodeSubmitSelector
	}
	if override.AddressSelector != "" {
		out.AddressSelector = override.AddressSelector
	}
	if override.DealContainerSelector != "" {
		out.DealContainerSelector = override.DealContainerSelector
	}
	if len(override.ExtractionMap) > 0 {
		out.ExtractionMap = override.ExtractionMap
	}
	if override.DefaultContractMonths > 0 {
		out.DefaultContractMonths = override.DefaultContractMonths
	}
	return out
}

func defaultProviders() Providers {
	return Providers{
		models.ProviderSky: {
			Name:                  "Sky",
			URL:                   "https://www.sky.com/shop/broadband-talk/",
			TimeoutMs:             30000,
			DealContainerSelector: "main",
			DefaultContractMonths: 24,
		},
		models.ProviderBT: {
			Name:                  "BT",
			URL:                   "https://www.bt.com/broadband",
			TimeoutMs:             30000,
			PostcodeInputSelector: "#sc-postcode",
			AddressSelector:       "li[data-analytics-link='Choose-address'] button",
			DealContainerSelector: "[data-testid='product-card']",
			DefaultContractMonths: 24,
		},
		models.ProviderEE: {
			Name:                  "EE",
			URL:                   "https://ee.co.uk/broadband",
			TimeoutMs:             30000,
			DealContainerSelector: "[data-testid^='ProductSelectPanel_']",
			DefaultContractMonths: 24,
		},
		models.ProviderHyperoptic: {
			Name:                   "Hyperoptic",
			URL:                    "https://www.hyperoptic.com/broadband/",
			TimeoutMs:              30000,
			PostcodeInputSelector:  "input[name='postcode']",
			PostcodeSubmitSelector: "button[type='submit']",
			AddressSelector:        "select.address-select",
			DefaultContractMonths:  24,
		},
		models.ProviderVirgin: {
			Name:                   "Virgin Media",
			URL:                    "https://www.virginmedia.com/broadband",
			TimeoutMs:              30000,
			PostcodeInputSelector:  "input[data-cy='postcode-input'], input#postcode",
			PostcodeSubmitSelector: "button[data-cy='postcode-check-availability-button'], button[type='submit']",
			DefaultContractMonths:  24,
		},
		models.ProviderVodafone: {
			Name:                   "Vodafone",
			URL:                    "https://www.vodafone.co.uk/broadband",
			TimeoutMs:              30000,
			PostcodeInputSelector:  "input#postcode-checker-input",
			PostcodeSubmitSelector: "button#postcode-checker-submit",
			AddressSelector:        "select#address-selector",
			DealContainerSelector:  "div[data-component='package-card']",
			DefaultContractMonths:  24,
			ExtractionMap: map[string]string{
				"deal_name":       "h3[data-component='package-name']",
				"monthly_price":   "span[data-component='monthly-price']",
				"upfront_cost":    "span[data-component='upfront-cost']",
				"download_speed":  "span[data-component='download-speed']",
				"upload_speed":    "span[data-component='upload-speed']",
				"contract_length": "span[data-component='contract-length']",
				"data_allowance":  "span[data-component='data-allowance']",
			},
		},
	}
}

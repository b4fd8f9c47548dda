package models

import "time"

// Provider identifiers for the six supported UK broadband providers.
const (
	ProviderSky        = "sky"
	ProviderBT         = "bt"
	ProviderEE         = "ee"
	ProviderHyperoptic = "hyperoptic"
	ProviderVirgin     = "virgin_media"
	ProviderVodafone   = "vodafone"
)

// AllProviders lists every known provider identifier in canonical order.
var AllProviders = []string{
	ProviderSky,
	ProviderBT,
	ProviderEE,
	ProviderHyperoptic,
	ProviderVirgin,
	ProviderVodafone,
}

// KnownProvider reports whether name is a supported provider identifier.
func KnownProvider(name string) bool {
	for _, p := range AllProviders {
		if p == name {
			return true
		}
	}
	return false
}

// Technology classifies the broadband delivery medium.
type Technology string

const (
	TechCopper  Technology = "Copper"
	TechFTTC    Technology = "FTTC"
	TechFTTP    Technology = "FTTP"
	TechCable   Technology = "Cable"
	TechUnknown Technology = "Unknown"
)

// RawCard holds the unprocessed text pulled from a single product card
// before any cleaning or coercion. Fields stay as scraped strings so the
// normalizer can re-run the extraction functions idempotently.
type RawCard struct {
	Provider       string
	DealName       string
	MonthlyPrice   string
	UpfrontCost    string
	DownloadSpeed  string
	UploadSpeed    string
	ContractLength string
	DataAllowance  string
	Promotions     string
	Technology     Technology
	Postcode       string
	Address        string
	URL            string
	ScrapedAt      time.Time
}

// Deal is the normalized, validated broadband offer record ready for export.
type Deal struct {
	Provider          string     `json:"provider"`
	DealName          string     `json:"deal_name"`
	MonthlyPrice      float64    `json:"monthly_price"`
	UpfrontCost       float64    `json:"upfront_cost"`
	DownloadSpeed     float64    `json:"download_speed"`
	UploadSpeed       *float64   `json:"upload_speed,omitempty"`
	ContractLength    int        `json:"contract_length"`
	TotalContractCost float64    `json:"total_contract_cost"`
	DataAllowance     string     `json:"data_allowance"`
	Technology        Technology `json:"technology_type"`
	InstallationType  string     `json:"installation_type"`
	Promotions        string     `json:"promotions,omitempty"`
	Postcode          string     `json:"postcode"`
	Address           string     `json:"address,omitempty"`
	URL               string     `json:"url"`
	ExtractedAt       time.Time  `json:"extraction_timestamp"`
}

// ProviderConfig is the static per-provider configuration loaded once per
// process from providers.json. It is shared read-only across sessions.
type ProviderConfig struct {
	Name                   string            `mapstructure:"name"`
	URL                    string            `mapstructure:"url"`
	TimeoutMs              int               `mapstructure:"timeout_ms"`
	CookieSelectors        []string          `mapstructure:"cookie_selectors"`
	PostcodeInputSelector  string            `mapstructure:"postcode_input_selector"`
	PostcodeSubmitSelector string            `mapstructure:"postcode_submit_selector"`
	AddressSelector        string            `mapstructure:"address_dropdown_selector"`
	DealContainerSelector  string            `mapstructure:"deal_container_selector"`
	ExtractionMap          map[string]string `mapstructure:"extraction_map"`
	DefaultContractMonths  int               `mapstructure:"default_contract_months"`
}

// Timeout returns the configured page timeout, falling back to 30s.
func (pc ProviderConfig) Timeout() time.Duration {
	if pc.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(pc.TimeoutMs) * time.Millisecond
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings loaded from environment variables.
// The scrape policy knobs (attempt counts, poll deadlines, stable-cycle
// thresholds) are empirically tuned values; they default to the observed
// working numbers but stay overridable per environment.
type Config struct {
	Headless    bool
	ChromeBin   string
	ProxyServer string

	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string

	// Scrape policy.
	PostcodeAttempts     int
	StableCycles         int
	ConsentDeadlineMs    int
	PollIntervalMs       int
	InterProviderDelayMs int
	MaxRetries           int
	RetryBaseDelayMs     int

	OutputDir     string
	ProvidersPath string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Headless:    getEnvBool("HEADLESS", true),
		ChromeBin:   getEnv("CHROME_BIN", ""),
		ProxyServer: getEnv("PROXY_SERVER", ""),

		ViewportWidth:  getEnvInt("VIEWPORT_WIDTH", 1366),
		ViewportHeight: getEnvInt("VIEWPORT_HEIGHT", 768),
		Locale:         getEnv("BROWSER_LOCALE", "en-GB"),
		TimezoneID:     getEnv("BROWSER_TIMEZONE", "Europe/London"),

		PostcodeAttempts:     getEnvInt("POSTCODE_ATTEMPTS", 5),
		StableCycles:         getEnvInt("LAZY_LOAD_STABLE_CYCLES", 2),
		ConsentDeadlineMs:    getEnvInt("CONSENT_DEADLINE_MS", 12000),
		PollIntervalMs:       getEnvInt("POLL_INTERVAL_MS", 300),
		InterProviderDelayMs: getEnvInt("INTER_PROVIDER_DELAY_MS", 3000),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),
		RetryBaseDelayMs:     getEnvInt("RETRY_BASE_DELAY_MS", 2000),

		OutputDir:     getEnv("OUTPUT_DIR", "./output"),
		ProvidersPath: getEnv("PROVIDERS_CONFIG", "providers.json"),
	}
}

// ConsentDeadline returns the total consent-banner search budget.
func (c *Config) ConsentDeadline() time.Duration {
	return time.Duration(c.ConsentDeadlineMs) * time.Millisecond
}

// PollInterval returns the sleep between element-search poll cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// RetryBaseDelay returns the initial backoff for retried sub-protocol
// steps; subsequent attempts double it.
func (c *Config) RetryBaseDelay() time.Duration {
	if c.RetryBaseDelayMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// InterProviderDelay returns the pause between providers in sequential mode.
func (c *Config) InterProviderDelay() time.Duration {
	return time.Duration(c.InterProviderDelayMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

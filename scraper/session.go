package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/DataHenHQ/useragent"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/utils"
)

// stealthScript is injected on every new document to suppress the usual
// automation-detection signals before provider scripts run.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-GB', 'en'] });
Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
window.chrome = window.chrome || { runtime: {} };
`

// Session owns one isolated browser context for a single provider scrape.
// It is created when the coordinator starts a provider and must be closed
// on every exit path; no session is ever shared across providers.
type Session struct {
	Provider string
	Config   models.ProviderConfig
	Logger   *utils.Logger

	ctx     context.Context
	cancels []context.CancelFunc
}

// NewSession launches an isolated browser context configured for a UK
// provider site: randomized desktop UA, en-GB locale, Europe/London
// timezone, London geolocation, and the stealth init script.
func NewSession(parent context.Context, cfg *config.Config, provider string, pc models.ProviderConfig, logger *utils.Logger) (*Session, error) {
	ua, err := useragent.Desktop()
	if err != nil {
		return nil, fmt.Errorf("session: generate user agent: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),

		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
	)

	if bin := findChromeBinary(cfg.ChromeBin); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	if cfg.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyServer))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &Session{
		Provider: provider,
		Config:   pc,
		Logger:   logger,
		ctx:      ctx,
		cancels:  []context.CancelFunc{cancelCtx, cancelAlloc},
	}

	err = chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		emulation.SetTimezoneOverride(cfg.TimezoneID),
		emulation.SetGeolocationOverride().
			WithLatitude(51.5074).
			WithLongitude(-0.1278).
			WithAccuracy(100),
		emulation.SetUserAgentOverride(ua).
			WithAcceptLanguage(acceptLanguageFor(cfg.Locale)).
			WithPlatform("Win32"),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("session %s: browser bootstrap: %w", provider, err)
	}

	logger.Info("[%s] Browser session ready", provider)
	return s, nil
}

// Ctx returns the chromedp context all page operations run against.
func (s *Session) Ctx() context.Context {
	return s.ctx
}

// Navigate loads the given URL (provider landing page when empty) and waits
// for the document body to be ready.
func (s *Session) Navigate(url string) error {
	target := url
	if target == "" {
		target = s.Config.URL
	}

	s.Logger.Info("[%s] Navigating to %s", s.Provider, target)

	ctx, cancel := context.WithTimeout(s.ctx, s.Config.Timeout())
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("session %s: navigate %s: %w", s.Provider, target, err)
	}
	return nil
}

// CurrentURL returns the page's current location, or the configured URL if
// the query fails.
func (s *Session) CurrentURL() string {
	var url string
	if err := chromedp.Run(s.ctx, chromedp.Location(&url)); err != nil || url == "" {
		return s.Config.URL
	}
	return url
}

// Close releases the browser context and all associated resources. Safe to
// call multiple times.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// acceptLanguageFor builds the Accept-Language header for the configured
// locale, weighting the bare language behind the full tag.
func acceptLanguageFor(locale string) string {
	if locale == "" {
		locale = "en-GB"
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		return fmt.Sprintf("%s,%s;q=0.9", locale, base)
	}
	return locale
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path over PATH lookup over well-known install locations.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

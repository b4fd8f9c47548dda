package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"broadband-compare/config"
	"broadband-compare/models"
	"broadband-compare/scraper"
	"broadband-compare/scraper/providers"
	"broadband-compare/services"
	"broadband-compare/storage"
	"broadband-compare/utils"
)

type options struct {
	postcode   string
	address    string
	providers  string
	format     string
	output     string
	logLevel   string
	headless   bool
	concurrent bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "broadband-compare",
		Short: "Compare UK broadband deals available at a postcode",
		Long: "broadband-compare drives a real browser across the major UK broadband\n" +
			"providers, checks availability for a postcode, and exports the deals it\n" +
			"finds as CSV, JSON, or XLSX.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.postcode, "postcode", "p", "", "UK postcode to check availability for (required)")
	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "preferred address when the postcode matches several")
	cmd.Flags().StringVar(&opts.providers, "providers", "all", "comma-separated provider list, or 'all'")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "output format: csv, json, xlsx, or all")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from OUTPUT_DIR or ./output)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&opts.headless, "headless", true, "run the browser headless")
	cmd.Flags().BoolVar(&opts.concurrent, "concurrent", false, "scrape providers concurrently instead of sequentially")
	_ = cmd.MarkFlagRequired("postcode")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	logger := utils.NewLoggerAt(utils.ParseLevel(opts.logLevel))

	if !scraper.ValidatePostcode(opts.postcode) {
		return fmt.Errorf("%q is not a valid UK postcode", opts.postcode)
	}

	cfg := config.Load()
	cfg.Headless = opts.headless
	if opts.output != "" {
		cfg.OutputDir = opts.output
	}

	providerCfgs, err := config.LoadProviders(cfg.ProvidersPath)
	if err != nil {
		return err
	}

	names, err := resolveProviders(opts.providers)
	if err != nil {
		return err
	}

	runners := make([]scraper.ProviderRunner, 0, len(names))
	for _, name := range names {
		strat, ok := providers.ForName(name)
		if !ok {
			return fmt.Errorf("no strategy for provider %q", name)
		}
		pc, ok := providerCfgs[name]
		if !ok {
			return fmt.Errorf("no configuration for provider %q", name)
		}
		runners = append(runners, scraper.NewSessionRunner(cfg, name, pc, strat, logger))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	normalizer := services.NewNormalizer(providerCfgs, logger)
	coordinator := scraper.NewCoordinator(cfg, runners, normalizer, logger)

	deals := coordinator.Run(ctx, opts.postcode, opts.address, opts.concurrent)
	if len(deals) == 0 {
		return fmt.Errorf("no deals found for %s", opts.postcode)
	}

	deals = services.SortDeals(deals, "monthly_price", true)

	exporter := storage.NewExporter(cfg.OutputDir, logger)
	if _, err := exporter.Export(deals, opts.format); err != nil {
		return err
	}

	services.PrintSummary(logger, services.BuildSummary(deals))
	return nil
}

// resolveProviders expands the --providers flag into validated identifiers.
func resolveProviders(flag string) ([]string, error) {
	if strings.TrimSpace(flag) == "" || strings.EqualFold(flag, "all") {
		return models.AllProviders, nil
	}

	var names []string
	for _, part := range strings.Split(flag, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !models.KnownProvider(name) {
			return nil, fmt.Errorf("unknown provider %q (known: %s)", name, strings.Join(models.AllProviders, ", "))
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no providers selected")
	}
	return names, nil
}

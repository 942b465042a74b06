package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/app"
	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/screener"
)

const (
	defaultOutput   = "outputs/screener_results.csv"
	reportTitle     = "Stock Screener Results"
	defaultTTLHours = 24.0
)

var (
	errNoTickerSource = errors.New("Must specify --tickers, --tickers-file, or --config")
	errNoTickers      = errors.New("No tickers to screen")
)

// screenOptions holds the screen command flags
type screenOptions struct {
	tickers       string
	tickersFile   string
	configFile    string
	criteriaFile  string
	criteria      string
	output        string
	format        string
	filterPassed  bool
	show          bool
	noCache       bool
	cacheTTLHours float64
	ttlChanged    bool
}

var screenOpts screenOptions

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen stocks against financial criteria",
	Long: `Screens tickers against financial criteria and writes the results.

Examples:
  screener screen --tickers AAPL,MSFT,GOOGL
  screener screen --config screener.toml --tickers AAPL,MSFT
  screener screen --tickers AAPL --criteria "pe_max=20,roe_min=0.15"
  screener screen --tickers AAPL,MSFT --filter-passed --show`,
	RunE: runScreenCmd,
}

func init() {
	flags := screenCmd.Flags()
	flags.StringVarP(&screenOpts.tickers, "tickers", "t", "", "Comma-separated list of ticker symbols (e.g., AAPL,MSFT,GOOGL)")
	flags.StringVar(&screenOpts.tickersFile, "tickers-file", "", "Path to a text/CSV file with tickers (one per line or comma-separated)")
	flags.StringVarP(&screenOpts.configFile, "config", "c", "", "Path to TOML configuration file")
	flags.StringVar(&screenOpts.criteriaFile, "criteria-file", "", "Path to a YAML or JSON file with a screener.criteria section")
	flags.StringVar(&screenOpts.criteria, "criteria", "", `Inline criteria string (e.g., "pe_max=25,market_cap_min=1000000000")`)
	flags.StringVarP(&screenOpts.output, "output", "o", defaultOutput, "Output file path")
	flags.StringVar(&screenOpts.format, "format", "", "Output format: csv, json, html, md or pdf (default: from the output extension, else csv)")
	flags.BoolVar(&screenOpts.filterPassed, "filter-passed", false, "Only output stocks that passed all criteria")
	flags.BoolVar(&screenOpts.show, "show", false, "Print results to stdout in a table format")
	flags.BoolVar(&screenOpts.noCache, "no-cache", false, "Disable local cache for fetched data")
	flags.Float64Var(&screenOpts.cacheTTLHours, "cache-ttl-hours", defaultTTLHours, "Cache freshness window in hours")
}

func runScreenCmd(cmd *cobra.Command, args []string) error {
	opts := screenOpts
	opts.ttlChanged = cmd.Flags().Changed("cache-ttl-hours")

	config, err := loadScreenConfig(opts)
	if err != nil {
		return err
	}
	logger := common.InitLogger(config)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScreen(ctx, config, opts, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// loadScreenConfig loads the optional TOML config and applies the cache flags
func loadScreenConfig(opts screenOptions) (*common.Config, error) {
	config, err := common.LoadFromFile(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.noCache {
		config.Fetch.UseCache = false
	}
	if opts.ttlChanged {
		if opts.cacheTTLHours <= 0 {
			return nil, fmt.Errorf("--cache-ttl-hours must be positive")
		}
		config.Fetch.TTL = common.NewDuration(time.Duration(opts.cacheTTLHours * float64(time.Hour)))
	}
	return config, nil
}

// resolveTickers applies ticker precedence: --tickers, --tickers-file, then the config
// and criteria file default tickers
func resolveTickers(config *common.Config, opts screenOptions) ([]string, error) {
	var tickers []string
	switch {
	case opts.tickers != "":
		tickers = common.ParseTickers(opts.tickers)
	case opts.tickersFile != "":
		loaded, err := common.LoadTickersFile(opts.tickersFile)
		if err != nil {
			return nil, err
		}
		tickers = loaded
	case opts.configFile != "" || opts.criteriaFile != "":
		tickers = common.ParseTickers(strings.Join(config.Screener.DefaultTickers, ","))
		if len(tickers) == 0 && opts.criteriaFile != "" {
			loaded, err := criteria.LoadDefaultTickers(opts.criteriaFile)
			if err != nil {
				return nil, fmt.Errorf("could not load default tickers: %w", err)
			}
			tickers = common.ParseTickers(strings.Join(loaded, ","))
		}
	default:
		return nil, errNoTickerSource
	}

	if len(tickers) == 0 {
		return nil, errNoTickers
	}
	return tickers, nil
}

// resolveCriteria applies criteria precedence and reports the source used
func resolveCriteria(config *common.Config, opts screenOptions, out, errOut io.Writer) (models.CriteriaConfig, error) {
	var (
		cfg models.CriteriaConfig
		err error
	)
	switch {
	case strings.TrimSpace(opts.criteria) != "":
		cfg = criteria.ParseInline(opts.criteria)
		fmt.Fprintf(out, "Using inline criteria: %s\n", describeCriteria(cfg))
	case opts.criteriaFile != "":
		if cfg, err = criteria.LoadFile(opts.criteriaFile); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Loaded criteria from %s\n", opts.criteriaFile)
	default:
		cfg, err = criteria.Resolve(config.Screener.Criteria, config.Screener.CriteriaFile, config.Screener.Rules)
		if err != nil {
			return nil, err
		}
		if opts.configFile != "" {
			fmt.Fprintf(out, "Loaded criteria from %s\n", opts.configFile)
		} else {
			fmt.Fprintln(out, "Using default criteria from configuration")
		}
	}

	if len(cfg) == 0 {
		fmt.Fprintln(errOut, "Warning: No criteria specified. All stocks will pass.")
	} else if verr := criteria.Validate(cfg); verr != nil {
		fmt.Fprintf(errOut, "Warning: %v\n", verr)
	}
	return cfg, nil
}

// outputFormat picks --format, else the output extension, else csv
func outputFormat(opts screenOptions) (report.Format, error) {
	if opts.format != "" {
		return report.ParseFormat(opts.format)
	}
	if f, ok := report.FormatFromPath(opts.output); ok {
		return f, nil
	}
	return report.FormatCSV, nil
}

func runScreen(ctx context.Context, config *common.Config, opts screenOptions, logger arbor.ILogger, out, errOut io.Writer) error {
	tickers, err := resolveTickers(config, opts)
	if err != nil {
		return err
	}
	format, err := outputFormat(opts)
	if err != nil {
		return err
	}
	cfg, err := resolveCriteria(config, opts, out, errOut)
	if err != nil {
		return err
	}

	engine, err := criteria.NewEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize screener: %w", err)
	}

	pipeline, err := app.NewPipeline(ctx, config, logger, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize screener: %w", err)
	}
	defer pipeline.Close()

	fmt.Fprintf(out, "\nScreening %d ticker(s): %s\n", len(tickers), strings.Join(tickers, ", "))
	fmt.Fprintf(out, "Criteria: %d criteria configured\n\n", engine.Len())

	results := screener.New(pipeline.Acquirer, engine, logger).ScreenMany(ctx, tickers)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("screening interrupted: %w", err)
	}

	if opts.filterPassed {
		results = screener.FilterPassed(results)
		fmt.Fprintf(out, "Filtered to %d passing stocks\n\n", len(results))
	}

	rep := report.New(reportTitle, results, time.Now())
	if err := rep.WriteFile(opts.output, format); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	fmt.Fprintf(out, "Results saved to %s\n", opts.output)

	stats := pipeline.Cache.Stats()
	logger.Debug().
		Int64("cache_hits", stats.Hits).
		Int64("cache_misses", stats.Misses).
		Int64("cache_read_errors", stats.ReadErrors).
		Int64("cache_write_errors", stats.WriteErrors).
		Msg("Screening complete")

	return report.WriteSummary(out, rep.Records, opts.show)
}

// describeCriteria renders a configuration as "key=value, key=value"
func describeCriteria(cfg models.CriteriaConfig) string {
	parts := make([]string, 0, len(cfg))
	for _, setting := range cfg {
		parts = append(parts, fmt.Sprintf("%s=%v", setting.Key, setting.Value))
	}
	return strings.Join(parts, ", ")
}

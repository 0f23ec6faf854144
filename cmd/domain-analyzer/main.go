// domain-analyzer — composable .lt domain analysis tool.
//
// Scans Lithuanian domains through profile-driven checks: registry
// availability (DAS), WHOIS, DNS, HTTP, TLS, activity classification,
// and content analysis. Produces structured JSON reports and records
// domains discovered through redirect chains.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/balticscan/domain-analyzer/internal/catalog"
	"github.com/balticscan/domain-analyzer/internal/checks"
	"github.com/balticscan/domain-analyzer/internal/config"
	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/orchestrator"
	"github.com/balticscan/domain-analyzer/internal/output"
	"github.com/balticscan/domain-analyzer/internal/probe"
	"github.com/balticscan/domain-analyzer/internal/store"
)

var version = "0.1.0"

// Exit codes: 0 all domains attempted (per-domain failures are in the
// report, not the exit code), 1 unrecoverable configuration error,
// 2 invalid arguments.
const (
	exitOK     = 0
	exitConfig = 1
	exitUsage  = 2
)

// configError marks setup failures that are not the caller's fault:
// unreadable config file, store open failure, report write failure.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func main() {
	var (
		scanDomains     []string
		scanProfiles    string
		scanConcurrency int
		scanOutput      string
		scanCSV         string
		scanOutDir      string
		scanConfig      string
		scanDB          string
		scanNoStore     bool
		scanQuiet       bool
		scanVerbose     bool
	)

	rootCmd := &cobra.Command{
		Use:   "domain-analyzer [domains-file]",
		Short: "Composable .lt domain analysis tool",
		Long: `domain-analyzer — profile-driven scanner for .lt domains.

Checks registration (DAS/WHOIS), DNS, HTTP, TLS, and page content,
classifies whether a domain hosts an active site, and captures new
.lt domains found in redirect chains.

Profiles compose: -p quick-check for a fast pass, -p standard for the
usual set, -p complete for everything, or pick individual profiles
like -p dns,http,ssl.`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(scanConfig)
			if err != nil {
				return configError{err}
			}
			if scanConcurrency > 0 {
				cfg.Network.Concurrency = scanConcurrency
			}
			if scanDB != "" {
				cfg.Store.Path = scanDB
			}
			if scanVerbose {
				cfg.Logging.Level = "debug"
			}

			domains, err := gatherDomains(args, scanDomains)
			if err != nil {
				return err
			}

			profiles := scanProfiles
			if profiles == "" {
				profiles = cfg.Profiles.Default
			}

			logger, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return configError{err}
			}
			defer logger.Sync()

			// A profile-resolution error comes back plain and exits 2;
			// setup failures come back wrapped and exit 1.
			results, err := runScan(cmd, cfg, logger, domains, profiles, scanNoStore, scanQuiet)
			if err != nil {
				return err
			}

			report := output.BuildReport(results)
			if err := output.WriteJSON(report, scanOutput); err != nil {
				return configError{err}
			}
			if scanCSV != "" {
				if err := output.WriteCSV(report, scanCSV); err != nil {
					return configError{err}
				}
			}
			if scanOutDir != "" {
				for _, r := range results {
					if err := output.WriteDomainJSON(r, scanOutDir); err != nil {
						return configError{err}
					}
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringSliceVarP(&scanDomains, "domain", "d", nil, "Domain to scan (repeatable); alternative to a domains file")
	rootCmd.Flags().StringVarP(&scanProfiles, "profiles", "p", "", "Comma-separated profile set (default from config)")
	rootCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "Max simultaneous domain scans (overrides config)")
	rootCmd.Flags().StringVarP(&scanOutput, "output", "o", "-", "Batch report path (- for stdout)")
	rootCmd.Flags().StringVar(&scanCSV, "csv", "", "Also write a per-domain CSV summary to this path")
	rootCmd.Flags().StringVar(&scanOutDir, "out-dir", "", "Also write one JSON file per domain into this directory")
	rootCmd.Flags().StringVarP(&scanConfig, "config", "c", "", "Config file path (YAML)")
	rootCmd.Flags().StringVar(&scanDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.Flags().BoolVar(&scanNoStore, "no-store", false, "Disable result persistence")
	rootCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newProfilesCmd(), newMCPCmd())

	if err := rootCmd.Execute(); err != nil {
		var cerr configError
		if errors.As(err, &cerr) {
			os.Exit(exitConfig)
		}
		os.Exit(exitUsage)
	}
	os.Exit(exitOK)
}

// runScan wires the pipeline and runs the batch.
func runScan(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, domains []string, profiles string, noStore, quiet bool) ([]*model.Result, error) {
	deps, closeStore, err := buildDeps(cfg, logger, noStore)
	if err != nil {
		return nil, configError{err}
	}
	defer closeStore()

	deps.Progress = output.NewProgress(len(domains), !quiet)

	orch := orchestrator.New(deps)
	return orch.RunBatch(cmd.Context(), domains, profiles)
}

// buildDeps constructs the orchestrator dependencies from config.
// The returned func closes the store, when one was opened.
func buildDeps(cfg *config.Config, logger *zap.Logger, noStore bool) (orchestrator.Deps, func(), error) {
	deps := orchestrator.Deps{
		Catalog: catalog.Builtin(catalog.BuiltinOptions{
			MonitorUsesFullWhois: cfg.Profiles.MonitorUsesFullWhois,
		}),
		Config: cfg,
		DAS: probe.NewDASClient(probe.DASConfig{
			Server:       cfg.Checks.Whois.Server,
			Port:         cfg.Checks.Whois.Port,
			Timeout:      cfg.RequestTimeout(),
			MaxPerSecond: cfg.Checks.Whois.RateLimit,
		}, logger),
		Whois: probe.NewWhoisClient(probe.WhoisConfig{
			Server:   cfg.Checks.Whois.WhoisServer,
			Port:     cfg.Checks.Whois.WhoisPort,
			Timeout:  cfg.WhoisTimeout(),
			Capacity: cfg.Checks.Whois.WhoisRateLimit.Capacity,
			Period:   cfg.WhoisBucketPeriod(),
		}, logger),
		HTTP:   probe.NewHTTPProber(cfg.RequestTimeout(), logger),
		DNS:    probe.NewDNSProber(cfg.Network.Resolver, cfg.RequestTimeout(), logger),
		TLS:    probe.NewTLSProber(0, cfg.RequestTimeout(), logger),
		Checks: checks.NewRunner(cfg.RequestTimeout(), 0, logger),
		Logger: logger,
	}

	closeStore := func() {}
	if !noStore && cfg.Store.Path != "" {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return orchestrator.Deps{}, nil, err
		}
		deps.Store = st
		closeStore = func() { st.Close() }
	}
	return deps, closeStore, nil
}

// gatherDomains merges the positional file with --domain flags.
func gatherDomains(args, flagged []string) ([]string, error) {
	var domains []string
	domains = append(domains, flagged...)

	if len(args) == 1 {
		fromFile, err := readDomainsFile(args[0])
		if err != nil {
			return nil, err
		}
		domains = append(domains, fromFile...)
	}

	if len(domains) == 0 {
		return nil, fmt.Errorf("no domains: pass a domains file or --domain")
	}
	return domains, nil
}

// readDomainsFile reads one domain per line; blank lines and
// #-comments are skipped.
func readDomainsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open domains file: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	return domains, nil
}

// newLogger builds the process logger at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// Logs go to stderr; stdout is reserved for the report.
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

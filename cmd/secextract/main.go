// secextract pulls XBRL facts out of SEC filings and computes a fixed set
// of canonical fields and financial metrics from them.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sec_extractor/pkg/core/canonical"
	"sec_extractor/pkg/core/config"
	"sec_extractor/pkg/core/edgar"
	"sec_extractor/pkg/core/logging"
	"sec_extractor/pkg/core/pipeline"
	"sec_extractor/pkg/core/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "secextract",
	Short: "Extract canonical financial fields and metrics from SEC XBRL filings",
	Long: `secextract downloads an SEC filing (inline XBRL or an XBRL instance),
keeps the facts that belong to the reporting period, resolves them onto a
fixed set of canonical fields and computes derived financial metrics.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(filingsCmd)
	rootCmd.AddCommand(cacheCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("secextract %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// newClient builds an EDGAR client backed by the configured document
// cache. The closer must be called when the command finishes.
func newClient(ctx context.Context) (*edgar.Client, io.Closer, error) {
	cache, closer, err := store.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	opts := []edgar.Option{edgar.WithLogger(log)}
	if cache != nil {
		opts = append(opts, edgar.WithCache(cache))
	}
	client := edgar.NewClient(edgar.ClientConfig{
		UserAgent:         cfg.SEC.UserAgent,
		From:              cfg.SEC.From,
		RequestsPerSecond: cfg.SEC.RequestsPerSecond,
		MaxRetries:        cfg.SEC.MaxRetries,
		BackoffFactor:     cfg.SEC.BackoffFactor,
		Timeout:           cfg.SEC.Timeout,
	}, opts...)
	log.Debug("secextract: client ready", zap.Stringer("client", client), zap.String("cache", cfg.Cache.Backend))
	return client, closer, nil
}

// newExtractor builds an extractor over source, replacing the built-in
// field table with the --fields file when one is given.
func newExtractor(cmd *cobra.Command, source pipeline.FactSource) (*pipeline.Extractor, error) {
	x := pipeline.NewExtractor(source, log)
	path, _ := cmd.Flags().GetString("fields")
	if path == "" {
		return x, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field table: %w", err)
	}
	defer f.Close()
	fields, err := canonical.LoadFields(f)
	if err != nil {
		return nil, err
	}
	return x.WithFields(fields), nil
}

// output opens the --out file, or stdout when it is empty.
func output(cmd *cobra.Command) (io.WriteCloser, error) {
	path, _ := cmd.Flags().GetString("out")
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/config"
	"github.com/mesh-intelligence/pantry/internal/gateway"
	"github.com/mesh-intelligence/pantry/internal/importer"
	"github.com/mesh-intelligence/pantry/internal/metrics"
)

type importFlags struct {
	file          string
	maxAttempts   int
	retryInterval string
	throttle      string
	timeout       string
	metricsFile   string
}

func newImportCmd(root *rootFlags) *cobra.Command {
	f := &importFlags{}
	cmd := &cobra.Command{
		Use:   "import [BASE_URL]",
		Short: "Import a grocery export into the food-chain service",
		Long: "Import reads the recipes in the export file and creates their store\n" +
			"locations, ingredients, recipes and links. BASE_URL overrides base_url.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return configError(err)
			}
			if len(args) == 1 {
				cfg.BaseURL = args[0]
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd.OutOrStdout(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&f.file, "file", "", "export file to import (default: our_groceries.json)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "attempts per request (default: 3)")
	cmd.Flags().StringVar(&f.retryInterval, "retry-interval", "", "pause between attempts (default: 1s)")
	cmd.Flags().StringVar(&f.throttle, "throttle", "", "pause after each recipe (default: 100ms)")
	cmd.Flags().StringVar(&f.timeout, "timeout", "", "per-request timeout (default: 30s)")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")
	return cmd
}

// apply overrides cfg with the flags that were set explicitly.
func (f *importFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.SourceFile = f.file
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempts
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	for _, d := range []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"retry-interval", f.retryInterval, &cfg.RetryInterval},
		{"throttle", f.throttle, &cfg.Throttle},
		{"timeout", f.timeout, &cfg.Timeout},
	} {
		if !flags.Changed(d.name) {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func runImport(ctx context.Context, out io.Writer, cfg *config.Config, logger *zap.Logger) error {
	rec := metrics.New()
	client := gateway.New(cfg.BaseURL, logger,
		gateway.WithMaxAttempts(cfg.MaxAttempts),
		gateway.WithRetryInterval(cfg.RetryInterval),
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithMetrics(rec),
	)
	im := importer.New(client, logger,
		importer.WithThrottle(cfg.Throttle),
		importer.WithMetrics(rec),
	)

	fmt.Fprintln(out, "Starting grocery data import...")
	fmt.Fprintf(out, "Target service: %s\n", client.BaseURL())
	fmt.Fprintf(out, "Source file: %s\n", cfg.SourceFile)

	report, runErr := im.Run(ctx, cfg.SourceFile)

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics file", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	printSummary(out, report)

	switch {
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(out, "Import interrupted.")
		return &exitError{code: exitUserError, err: runErr}
	case runErr != nil:
		fmt.Fprintln(out, "Import failed!")
		return &exitError{code: exitUserError, err: runErr}
	case !report.Success():
		fmt.Fprintln(out, "Import failed!")
		return &exitError{code: exitUserError, err: errRunFailed}
	}
	fmt.Fprintln(out, "Import completed successfully!")
	return nil
}

func printSummary(out io.Writer, report *importer.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Successfully imported: %d/%d recipes\n", report.Succeeded, report.Total)
	fmt.Fprintf(out, "Store locations created: %d\n", report.StoreLocations)
	fmt.Fprintf(out, "Ingredients created: %d\n", report.Ingredients)
	if len(report.Failed) > 0 {
		fmt.Fprintf(out, "Failed recipes: %d\n", len(report.Failed))
		for _, name := range report.Failed {
			fmt.Fprintf(out, "  - %s\n", name)
		}
	}
	if report.LinkFailures > 0 {
		fmt.Fprintf(out, "Link failures: %d\n", report.LinkFailures)
	}
}

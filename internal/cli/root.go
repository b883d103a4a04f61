// Package cli implements the pantry command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/config"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// errRunFailed marks an import run that did not import every recipe.
var errRunFailed = errors.New("import failed")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	logLevel  string
	logFormat string
}

// NewRootCmd creates the top-level "pantry" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "pantry",
		Short: "Import grocery recipes into a food-chain service",
		Long: "Pantry reads a grocery/recipe JSON export and creates the matching store\n" +
			"locations, ingredients and recipes in a food-chain REST service.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/pantry)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(newImportCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Stderr))
}

func run(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	code := exitUserError
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	// The summary already reported an unsuccessful run.
	if !errors.Is(err, errRunFailed) {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

// loadConfig resolves the configuration directory and loads the config with
// the global flag overrides applied. Command-specific overrides are applied
// by the caller before validation.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	dir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, configError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, configError(err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	return cfg, nil
}

// newLogger validates cfg and builds the logger writing to the command's
// stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, configError(err)
	}
	return logger, nil
}

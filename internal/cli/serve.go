package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/foodchain"
	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
)

func newServeCmd(root *rootFlags) *cobra.Command {
	var addr, dataDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local food-chain service",
		Long: "Serve runs a local implementation of the food-chain API backed by SQLite.\n" +
			"Without a data directory the data lives in memory and is lost on exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Serve.Addr = addr
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			dir, err := paths.ResolveDataDir(dataDir, cfg.Serve.DataDir)
			if err != nil {
				return configError(fmt.Errorf("resolve data dir: %w", err))
			}

			store := sqlite.NewStore()
			if err := store.Attach(dir); err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Detach()

			storage := dir
			if storage == "" {
				storage = "memory"
			}
			logger.Info("store attached", zap.String("data_dir", storage))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := foodchain.NewServer(store, logger, metrics.New())
			return srv.ListenAndServe(ctx, cfg.Serve.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: :8080)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory for the service's JSONL data (default: in memory)")
	return cmd
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/server"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "attentiond",
		Short: "Attention budget allocator",
		Long: titleStyle.Render("attentiond") + `

Scores UI elements against the current sensory and user context and admits
them into fixed screen, audio and cognitive budgets.

` + dimStyle.Render("Use 'attentiond [command] --help' for more information."),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newSimulateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		port string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inspection API and intent coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadOrDefault()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if dev {
				cfg.Logging.Development = true
				cfg.Logging.Level = "debug"
			}

			logger := server.NewLogger(cfg.Logging)
			defer logger.Close()

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				logger.Error("Failed to create server", zap.Error(err))
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting attentiond",
				zap.String("version", version),
				zap.String("addr", cfg.Server.Addr()),
				zap.Bool("dev", cfg.Logging.Development),
			)

			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Server error", zap.Error(err))
				return err
			}

			logger.Info("Shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "8000", "server port (overrides PORT)")
	cmd.Flags().BoolVar(&dev, "dev", false, "development mode: colored debug logs")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "simulate <pattern>...",
		Short: "Run scenario files and check their expectations",
		Long: `Run every scenario file matched by the given patterns through a fresh
store and print the resulting allocation. Patterns support ** globs.
Files may be YAML, TOML or JSON.

Exits non-zero if any scenario's expectations do not hold.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := logging.DefaultConfig()
			logCfg.Level = "error"
			logCfg.OutputPaths = []string{"stderr"}
			if verbose {
				logCfg = logging.DevelopmentConfig()
				logCfg.OutputPaths = []string{"stderr"}
			}

			logger, err := logging.New(logCfg)
			if err != nil {
				return err
			}
			defer logger.Close()

			failed, err := simulate(cmd.OutOrStdout(), args, logger.Logger)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("✗ "+err.Error()))
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d scenario(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log store activity to stderr")
	return cmd
}

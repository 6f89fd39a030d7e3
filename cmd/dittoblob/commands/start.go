package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoblob/internal/logger"
	"github.com/marmos91/dittoblob/pkg/blobserver"
	"github.com/marmos91/dittoblob/pkg/config"
	"github.com/marmos91/dittoblob/pkg/metrics"
	prommetrics "github.com/marmos91/dittoblob/pkg/metrics/prometheus"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DittoBlob server",
	Long: `Start the DittoBlob server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/dittoblob/config.yaml.

Examples:
  # Start with default config location
  dittoblob start

  # Start with custom config file
  dittoblob start --config /etc/dittoblob/config.yaml

  # Start with environment variable overrides
  DITTOBLOB_LOGGING_LEVEL=DEBUG dittoblob start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (optional)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	drv, err := cfg.Storage.NewDriver(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage driver: %w", err)
	}
	defer func() {
		if closer, ok := drv.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("storage driver close error", "error", err)
			}
		}
	}()
	logger.Info("Storage driver initialized", "driver", cfg.Storage.Driver)

	opts := blobserver.Options{}
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		opts.BlobMetrics = prommetrics.NewBlobMetrics()
		opts.MetricsHandler = metrics.Handler()
		logger.Info("Metrics enabled", "endpoint", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	server := blobserver.NewServer(cfg.Server, drv, opts)

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.", "port", server.Port())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

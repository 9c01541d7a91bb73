// Ventoctl controls Blauberg Vento ventilation fans over the local network.
//
// It speaks the controllers' UDP protocol directly: broadcast discovery,
// parameter reads and writes, and a live watch screen. Both the Vento
// Expert and the Smart Wi-Fi families are supported.
//
// Usage:
//
//	ventoctl [command] [flags]
//
// The device password is read from VENTO_PASSWORD or prompted for.
// See 'ventoctl --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/ventoctl/internal/config"
	"github.com/muurk/ventoctl/internal/logging"
	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		if !alreadyReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ventoctl",
	Short: "Blauberg Vento fan controller",
	Long: `Control Blauberg Vento Expert and Smart Wi-Fi ventilation units over
their local UDP protocol (port 4000).

Devices are found by broadcast, remembered in the config file, and addressed
by their 16-character id, a nickname, or an IP address.

The device password is taken from VENTO_PASSWORD, or prompted for when
stdin is a terminal. The factory password is 1111.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Global flags
var (
	deviceID      string
	deviceIP      string
	familyFlag    string
	timeoutMS     int
	broadcastAddr string
	udpPort       int
	outputFormat  string
	metricsAddr   string
)

// Shared state built by setup
var (
	registry         *config.Registry
	promRegistry     *prometheus.Registry
	transportMetrics *metrics.TransportMetrics
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&deviceID, "id", "", "Device id or nickname")
	flags.StringVar(&deviceIP, "ip", "", "Device IP address (skips discovery)")
	flags.StringVar(&familyFlag, "family", "", "Device family: expert or smartwifi (default: detect)")
	flags.IntVar(&timeoutMS, "timeout", 0, "Reply window in milliseconds (default 1500)")
	flags.StringVar(&broadcastAddr, "broadcast", "", "Discovery broadcast address (default 255.255.255.255)")
	flags.IntVar(&udpPort, "port", 0, "Controller UDP port (default 4000)")
	flags.StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json, raw)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")

	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	switch outputFormat {
	case "detailed", "json", "raw":
	default:
		return fmt.Errorf("unknown --format %q (want detailed, json or raw)", outputFormat)
	}

	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Ignoring unreadable config file", zap.Error(err))
		reg = config.NewRegistry()
	}
	registry = reg

	if metricsAddr != "" {
		enableMetrics()
		startMetricsServer(cmd.Context(), metricsAddr, metrics.Handler(promRegistry))
	}
	return nil
}

func enableMetrics() {
	if promRegistry != nil {
		return
	}
	promRegistry = metrics.NewRegistry()
	transportMetrics = metrics.NewTransportMetrics(promRegistry)
}

func startMetricsServer(ctx context.Context, addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ventoctl %s\n%s\n", version.Full(), version.Platform())
	},
}

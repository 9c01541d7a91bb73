package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/ventoctl/internal/metrics"
	"github.com/muurk/ventoctl/internal/server"
)

// serveCmd runs the HTTP/WebSocket bridge
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket bridge",
	Long: `Serve device state and writes over HTTP and WebSocket for home automation
tools that cannot speak the UDP protocol.

Endpoints:
  GET  /api/devices              known devices
  GET  /api/devices/{id}/state   one status read
  POST /api/devices/{id}/values  write parameters, e.g. {"speed": "2"}
  GET  /ws/{id}                  live state stream
  GET  /metrics                  Prometheus metrics

{id} is a device id or nickname. Devices not in the config file are located
by broadcast on first use. One password (VENTO_PASSWORD) is used for all of
them.`,
	Example: `  VENTO_PASSWORD=1111 ventoctl serve --listen-port 8080

  # HTTPS/WSS
  ventoctl serve --cert fullchain.pem --key privkey.pem`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost     string
	servePort     int
	serveInterval time.Duration
	serveCert     string
	serveKey      string
)

func runServe(cmd *cobra.Command, args []string) error {
	password, err := getPassword()
	if err != nil {
		return err
	}

	enableMetrics()
	srv, err := server.New(&server.Config{
		Host:           serveHost,
		Port:           servePort,
		CertPath:       serveCert,
		KeyPath:        serveKey,
		Password:       password,
		Interval:       serveInterval,
		Registry:       registry,
		Transport:      transportOptions(),
		Metrics:        metrics.NewBridgeMetrics(promRegistry),
		MetricsHandler: metrics.Handler(promRegistry),
	})
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "listen-host", "", "Interface to listen on (default: all)")
	serveCmd.Flags().IntVar(&servePort, "listen-port", 8080, "TCP port to listen on")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", server.DefaultInterval, "State push interval for WebSocket clients")
	serveCmd.Flags().StringVar(&serveCert, "cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveKey, "key", "", "TLS private key file")

	rootCmd.AddCommand(serveCmd)
}

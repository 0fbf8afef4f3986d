package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taker1974/tk-service-nats/internal/config"
	"github.com/taker1974/tk-service-nats/internal/logging"
	"github.com/taker1974/tk-service-nats/internal/messaging"
	"github.com/taker1974/tk-service-nats/internal/metrics"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to config file (YAML)")
	logLevel := flag.String("log-level", "", "Override logging level from config")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config file %s: %v", *configFile, err)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logging.Init(level, cfg.Logging.Format)
	logger := logging.Named("natsbridge")

	if !cfg.NATS.Enabled {
		logger.Warn("NATS bridge is disabled by configuration, exiting")
		return
	}

	prom := metrics.NewProm()
	svc, err := messaging.NewService(cfg.NATS, nil, logging.Named("messaging"), prom)
	if err != nil {
		logger.Fatalf("Failed to build messaging service: %v", err)
	}

	// Startup failure is fatal; there is nothing useful to run without a bus.
	if err := svc.Connect(); err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			connected := svc.IsConnected()
			w.Header().Set("Content-Type", "application/json")
			if !connected {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(map[string]bool{"connected": connected})
		})

		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	svc.Disconnect()
}

// Command auctiond runs the sealed-bid auction engine behind an HTTP API.
//
// The daemon owns commitment intake, reveal verification, settlement, and
// refund accounting. Edition minting and fee-adjusted payouts are performed
// by external collaborator services configured by URL.
//
// # Usage
//
//	go run ./cmd/auctiond --config=auctiond.yaml
//	go run ./cmd/auctiond --issuance=http://localhost:9001 --payout=http://localhost:9002
//
// Emitted auction records are persisted to PostgreSQL when configured, or
// kept in memory otherwise.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neodaoist/v3/api/httpserver"
	"github.com/neodaoist/v3/auction"
	"github.com/neodaoist/v3/cmd/common"
	"github.com/neodaoist/v3/metrics"
	"github.com/neodaoist/v3/services"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address")
		metricsAddr = flag.String("metrics-addr", "", "Metrics listen address")
		issuanceURL = flag.String("issuance", "", "Issuance collaborator base URL")
		payoutURL   = flag.String("payout", "", "Payout collaborator base URL")
		currency    = flag.String("currency", "", "Payout currency id")
		enablePprof = flag.Bool("pprof", false, "Enable pprof debugging API")
	)
	flag.Parse()

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	applyFlagOverrides(cfg, *addr, *metricsAddr, *issuanceURL, *payoutURL, *currency, *enablePprof)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfiguration(configPath string) (*common.Config, error) {
	if configPath != "" {
		return common.LoadConfig(configPath)
	}
	return common.DefaultConfig(), nil
}

func applyFlagOverrides(cfg *common.Config, addr, metricsAddr, issuanceURL, payoutURL, currency string, enablePprof bool) {
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if issuanceURL != "" {
		cfg.IssuanceURL = issuanceURL
	}
	if payoutURL != "" {
		cfg.PayoutURL = payoutURL
	}
	if currency != "" {
		cfg.Currency = currency
	}
	if enablePprof {
		cfg.EnablePprof = true
	}
}

func run(cfg *common.Config) error {
	log := cfg.NewLogger()

	var store services.EventStore
	if cfg.Postgres != nil {
		pgStore, err := services.NewPostgresEventStore(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting event store: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
		log.Info("Using PostgreSQL event store", "host", cfg.Postgres.Host)
	} else {
		store = services.NewMemoryEventStore()
		log.Info("Using in-memory event store")
	}

	engine, err := auction.NewEngine(&auction.EngineConfig{
		Issuance: services.NewHTTPIssuanceClient(cfg.IssuanceURL),
		Payout:   services.NewHTTPPayoutClient(cfg.PayoutURL),
		Currency: auction.CurrencyID(cfg.Currency),
		Events:   store,
		Log:      log,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	m := metrics.New("auctiond")
	handler := httpserver.NewAuctionHandler(engine, store, m, log)

	srv := httpserver.New(&httpserver.ServerConfig{
		ListenAddr:               cfg.ListenAddr,
		MetricsAddr:              cfg.MetricsAddr,
		EnablePprof:              cfg.EnablePprof,
		Log:                      log,
		DrainDuration:            cfg.DrainDuration.Std(),
		GracefulShutdownDuration: cfg.GracefulShutdownDuration.Std(),
	}, m, handler)

	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down")
	srv.Shutdown()
	return nil
}

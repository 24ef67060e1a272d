// Package main is the entry point for the watch-only indexing engine. It
// wires configuration, durable storage, and the façade together and then
// idles awaiting block delivery through internal/consumer's block-consumer
// contract; it has no chain source of its own — P2P networking, chain
// validation, and RPC/Electrum transport framing are external collaborators
// by design.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ripsline/btcwatch/internal/consumer"
	"github.com/ripsline/btcwatch/internal/facade"
	"github.com/ripsline/btcwatch/internal/rpcadapter"
	"github.com/ripsline/btcwatch/internal/store"
	"github.com/ripsline/btcwatch/internal/store/kv"
	"github.com/ripsline/btcwatch/internal/store/memstore"
	"github.com/ripsline/btcwatch/internal/wconfig"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (TOML)")
	dataDir := flag.String("data-dir", "", "Path to durable store")
	network := flag.String("network", "", "Network: mainnet, testnet3, regtest, signet")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("btcwatchd %s (%s)\n", Version, GitCommit)
		os.Exit(0)
	}

	printBanner()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	applyOverrides(cfg, *dataDir, *network)

	log.Println(cfg.String())
	log.Println()

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("❌ Failed to create data directory: %v", err)
	}

	networkParams, err := cfg.NetworkParams()
	if err != nil {
		log.Fatalf("❌ Invalid network: %v", err)
	}

	log.Println("📂 Opening durable store...")
	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open durable store: %v", err)
	}
	defer func() {
		log.Println("📂 Closing durable store...")
		if err := closeStore(); err != nil {
			log.Printf("⚠️  Error closing durable store: %v", err)
		}
	}()

	log.Println("🔄 Rehydrating indices from durable store...")
	f, err := facade.New(st, networkParams, cfg.GapLimit)
	if err != nil {
		log.Fatalf("❌ Failed to rehydrate cache: %v", err)
	}
	log.Printf("✅ Rehydrated at cache height %d", f.CacheHeight())

	_ = consumer.New(f)
	_ = rpcadapter.New(f, networkParams)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("⏳ Idle: awaiting blocks via the block-consumer contract and queries via the RPC adapter.")
	sig := <-sigChan
	log.Printf("🛑 Received signal %v, shutting down...", sig)
	log.Println("✅ Shutdown complete")
}

func printBanner() {
	log.Println("╔══════════════════════════════════════════════════════════════╗")
	log.Println("║                   btcwatchd indexing engine                   ║")
	log.Println("║            Watch-only addresses • SPV merkle proofs           ║")
	log.Println("╚══════════════════════════════════════════════════════════════╝")
	log.Println()
}

func loadConfig(configFile string) (*wconfig.Config, error) {
	if configFile != "" {
		return wconfig.LoadFromFile(configFile)
	}
	cfg := wconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *wconfig.Config, dataDir, network string) {
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if network != "" {
		cfg.Network = network
	}
}

func openStore(cfg *wconfig.Config) (store.Store, func() error, error) {
	switch cfg.Backend {
	case "memory":
		st := memstore.New()
		return st, st.Close, nil
	default:
		st, err := kv.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}
}

// resetheight is a utility for operators to force a replay of the durable
// store from a given height. It is the watch-only engine's analogue of the
// reference indexer's checkpoint reset tool, adapted to this engine's
// stats record instead of a UTXO-set checkpoint.
//
// IMPORTANT: only run this while the engine process is STOPPED. Running it
// concurrently with an active engine corrupts cache_height's
// advance-only-after-durable-writes invariant.
//
// Usage:
//
//	go run ./tools/resetheight -db ./data/watch.db -height 50000
//	go run ./tools/resetheight -db ./data/watch.db -status
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ripsline/btcwatch/internal/store"
	"github.com/ripsline/btcwatch/internal/store/kv"
)

func main() {
	dbPath := flag.String("db", "./data/watch.db", "Path to the durable store")
	height := flag.Int("height", -9999, "Height to reset cache_height to (-1 = full replay from genesis)")
	status := flag.Bool("status", false, "Show current status and exit")
	force := flag.Bool("force", false, "Skip confirmation prompt")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "btcwatch reset-height tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n⚠️  Only run this while the engine is STOPPED!\n")
	}

	flag.Parse()

	if !*status && *height == -9999 {
		flag.Usage()
		os.Exit(1)
	}

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("❌ Store not found at %s", *dbPath)
	}

	st, err := kv.Open(*dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		log.Fatalf("❌ Failed to load stats: %v", err)
	}

	if *status {
		showStatus(st, stats)
		return
	}

	if !*force && !confirmAction(*height, stats) {
		log.Println("❌ Aborted")
		return
	}

	stats.CacheHeight = int32(*height)
	if err := st.SaveStats(stats); err != nil {
		log.Fatalf("❌ Failed to save stats: %v", err)
	}
	log.Printf("✅ cache_height reset to %d", stats.CacheHeight)
	log.Println("   The engine will replay blocks after this height on next startup.")
	log.Println()
	log.Println("⚠️  Note: addresses and cached transactions above this height still")
	log.Println("   exist; the replay overwrites them idempotently as blocks re-arrive.")
}

func showStatus(st store.Store, stats *store.Stats) {
	addrs, err := st.LoadAllAddresses()
	if err != nil {
		log.Printf("⚠️  failed to load addresses: %v", err)
	}
	txs, err := st.ListTransactions()
	if err != nil {
		log.Printf("⚠️  failed to load transactions: %v", err)
	}
	descs, err := st.ListDescriptors()
	if err != nil {
		log.Printf("⚠️  failed to load descriptors: %v", err)
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  btcwatch store status                       ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  cache_height:   %d\n", stats.CacheHeight)
	fmt.Printf("  schema version: %d\n", stats.SchemaVersion)
	fmt.Println()
	fmt.Printf("  addresses:      %d\n", len(addrs))
	fmt.Printf("  transactions:   %d\n", len(txs))
	fmt.Printf("  descriptors:    %d\n", len(descs))
}

func confirmAction(height int, stats *store.Stats) bool {
	fmt.Println()
	fmt.Println("⚠️  WARNING: This will modify the durable store!")
	fmt.Println()
	fmt.Printf("  Current cache_height: %d\n", stats.CacheHeight)
	fmt.Printf("  Action: reset cache_height to %d\n", height)
	if int32(height) > stats.CacheHeight {
		fmt.Println()
		fmt.Println("  ⚠️  Target height is HIGHER than current! This may skip blocks.")
	}
	fmt.Println()
	fmt.Print("  Type 'yes' to confirm: ")

	var response string
	fmt.Scanln(&response)

	return response == "yes"
}

// Copyright 2025 Aqua Protocol Contributors
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquaprotocol/aquacore/internal/aqua"
	"github.com/aquaprotocol/aquacore/internal/chainverify"
	"github.com/aquaprotocol/aquacore/internal/config"
	"github.com/aquaprotocol/aquacore/internal/witness"
	"github.com/aquaprotocol/aquacore/internal/witness/ethbackend"
	"github.com/aquaprotocol/aquacore/internal/witness/nostrbackend"
	"github.com/aquaprotocol/aquacore/internal/witness/tsabackend"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		overlayPath    = flag.String("config", "", "optional YAML config overlay path")
		verifyFile     = flag.String("verify", "", "path to a serialized aqua object to verify and exit")
		witnessTips    = flag.String("witness-tips", "", "comma-separated chain tip hashes to witness and exit")
		witnessNetwork = flag.String("witness-network", "sepolia", "witness backend network: mainnet/sepolia/holesky/nostr/TSA_RFC3161")
		showHelp       = flag.Bool("help", false, "show help message")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load(*overlayPath)
	if err != nil {
		log.Fatalf("aquacore: load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("aquacore: invalid configuration: %v", err)
	}

	switch {
	case *verifyFile != "":
		runVerify(cfg, *verifyFile)
	case *witnessTips != "":
		runWitness(cfg, *witnessTips, *witnessNetwork)
	default:
		runServer(cfg)
	}
}

// runWitness drives the multi-chain witness protocol (spec.md §4.D) over
// a comma-separated list of chain tips, publishing through the
// backend selected by network and logging each chain's root,
// transaction hash and proof step count.
func runWitness(cfg *config.Config, tipsCSV, network string) {
	coordinator, err := buildCoordinator(cfg, network)
	if err != nil {
		log.Fatalf("aquacore: build witness coordinator: %v", err)
	}

	var tips []witness.ChainTip
	for i, tip := range strings.Split(tipsCSV, ",") {
		tips = append(tips, witness.ChainTip{ChainID: fmt.Sprintf("chain-%d", i), Tip: tip})
	}

	results, err := coordinator.Coordinate(context.Background(), tips)
	if err != nil {
		log.Fatalf("aquacore: coordinate witness: %v", err)
	}
	for _, r := range results {
		log.Printf("%s: root=%s tx=%s proof_steps=%d", r.ChainID, r.Root, r.Receipt.TransactionHash, len(r.Proof))
	}
}

func runVerify(cfg *config.Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("aquacore: read %s: %v", path, err)
	}
	obj, err := aqua.Open(data)
	if err != nil {
		log.Fatalf("aquacore: open chain: %v", err)
	}

	verifier := buildVerifier(cfg)
	result := verifier.VerifyChain(context.Background(), obj)

	outcome := "PASS"
	if !result.Pass(cfg.Strict) {
		outcome = "FAIL"
	}
	log.Printf("aquacore: verified %d revision(s): %s", len(result.Revisions), outcome)
	for _, rr := range result.Revisions {
		log.Printf("  %s: linkage=%s file=%s content=%s signature=%s witness=%s",
			rr.Hash, rr.Linkage, rr.File, rr.Content, rr.Signature, rr.Witness)
	}
	if outcome != "PASS" {
		os.Exit(1)
	}
}

// buildVerifier wires a chainverify.Verifier's external collaborators
// from configuration, following spec.md §6's external-interface
// boundary: the core never constructs these itself.
func buildVerifier(cfg *config.Config) *chainverify.Verifier {
	opts := chainverify.DefaultOptions()
	opts.SchemaVersion = cfg.SchemaVersion
	opts.AlchemyOrRPCKey = cfg.AlchemyOrRPCKey
	opts.Strict = cfg.Strict
	opts.VerifyMerkleProof = cfg.VerifyMerkleProof

	v := chainverify.NewVerifier(opts)

	if cfg.EthereumURL != "" {
		eth, err := ethbackend.Dial(context.Background(), ethbackend.Config{
			RPCURL:          cfg.EthereumURL,
			ChainID:         cfg.EthChainID,
			Network:         cfg.EthNetwork,
			ContractAddress: cfg.AnchorContractAddress,
			PrivateKeyHex:   cfg.EthPrivateKey,
		})
		if err != nil {
			log.Printf("aquacore: ethereum witness oracle unavailable: %v", err)
		} else {
			v.Eth = eth
		}
	}
	if len(cfg.NostrRelays) > 0 && cfg.NostrPrivateKey != "" {
		nostr, err := nostrbackend.New(cfg.NostrPrivateKey, cfg.NostrRelays)
		if err != nil {
			log.Printf("aquacore: nostr witness oracle unavailable: %v", err)
		} else {
			v.Nostr = nostr
			v.NostrRelay = cfg.NostrRelays[0]
		}
	}
	return v
}

// buildCoordinator wires a witness.Coordinator to the backend that
// network (the -witness-network flag) selects, configured from cfg
// (spec.md §4.D "Backends (pluggable)").
func buildCoordinator(cfg *config.Config, network string) (*witness.Coordinator, error) {
	switch network {
	case "nostr":
		backend, err := nostrbackend.New(cfg.NostrPrivateKey, cfg.NostrRelays)
		if err != nil {
			return nil, err
		}
		return witness.NewCoordinator(backend), nil
	case "TSA_RFC3161":
		return witness.NewCoordinator(tsabackend.New(cfg.TSAURL)), nil
	default:
		backend, err := ethbackend.Dial(context.Background(), ethbackend.Config{
			RPCURL:          cfg.EthereumURL,
			ChainID:         cfg.EthChainID,
			Network:         network,
			ContractAddress: cfg.AnchorContractAddress,
			PrivateKeyHex:   cfg.EthPrivateKey,
		})
		if err != nil {
			return nil, fmt.Errorf("aquacore: dial ethereum backend: %w", err)
		}
		return witness.NewCoordinator(backend), nil
	}
}

func runServer(cfg *config.Config) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		log.Printf("aquacore: metrics/health listening on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("aquacore: metrics server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("aquacore: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("aquacore: shutdown error: %v", err)
	}
}

func printHelp() {
	fmt.Println("aquacore — Aqua Protocol core verification service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  aquacore -verify <path>   verify a serialized aqua object and exit")
	fmt.Println("  aquacore                 run the metrics/health server")
	fmt.Println()
	flag.PrintDefaults()
}

// Copyright 2025 Aqua Protocol Contributors
//
// Package config loads this module's runtime configuration the way the
// teacher's pkg/config/config.go does: environment variables first, with
// an optional static YAML overlay for network/contract tables, then
// explicit Validate() before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the options spec.md §6's "Configuration" block names,
// plus the transport settings the witness backends need.
type Config struct {
	// Verifier options (spec.md §6).
	SchemaVersion     string
	AlchemyOrRPCKey   string
	Strict            bool
	VerifyMerkleProof bool

	// Ethereum witness transport.
	EthereumURL           string
	EthChainID            int64
	EthNetwork            string // "mainnet", "sepolia", "holesky"
	AnchorContractAddress string
	EthPrivateKey         string

	// Nostr witness transport.
	NostrRelays     []string
	NostrPrivateKey string

	// TSA witness transport.
	TSAURL string

	// Ambient.
	ListenAddr  string
	MetricsAddr string
	LogLevel    string
}

// overlay is the shape of the optional YAML file (spec.md §6's
// configuration is otherwise entirely env-driven; the overlay exists
// for static per-network tables an operator would rather keep out of
// shell environments).
type overlay struct {
	AnchorContractAddress string   `yaml:"anchor_contract_address"`
	NostrRelays           []string `yaml:"nostr_relays"`
	TSAURL                string   `yaml:"tsa_url"`
}

// Load reads configuration from the environment, then applies an
// optional YAML overlay file at overlayPath (if non-empty and present)
// for fields the overlay supports. Call Validate() after Load().
func Load(overlayPath string) (*Config, error) {
	cfg := &Config{
		SchemaVersion:     getEnv("AQUA_SCHEMA_VERSION", ""),
		AlchemyOrRPCKey:   getEnv("AQUA_RPC_KEY", ""),
		Strict:            getEnvBool("AQUA_STRICT", false),
		VerifyMerkleProof: getEnvBool("AQUA_VERIFY_MERKLE_PROOF", true),

		EthereumURL:           getEnv("ETHEREUM_URL", ""),
		EthChainID:            getEnvInt64("ETH_CHAIN_ID", 11155111),
		EthNetwork:            getEnv("ETH_NETWORK", "sepolia"),
		AnchorContractAddress: getEnv("ANCHOR_CONTRACT_ADDRESS", ""),
		EthPrivateKey:         getEnv("ETH_PRIVATE_KEY", ""),

		NostrRelays:     splitNonEmpty(getEnv("NOSTR_RELAYS", "")),
		NostrPrivateKey: getEnv("NOSTR_PRIVATE_KEY", ""),

		TSAURL: getEnv("TSA_URL", ""),

		ListenAddr:  getEnv("AQUA_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsAddr: getEnv("AQUA_METRICS_ADDR", "0.0.0.0:9090"),
		LogLevel:    getEnv("AQUA_LOG_LEVEL", "info"),
	}

	if overlayPath != "" {
		if err := cfg.applyOverlay(overlayPath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyOverlay merges a YAML file's values over the environment
// defaults, for fields an operator would rather commit as static config
// than export as an environment variable.
func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read overlay %s: %w", path, err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config: parse overlay %s: %w", path, err)
	}

	if o.AnchorContractAddress != "" {
		c.AnchorContractAddress = o.AnchorContractAddress
	}
	if len(o.NostrRelays) > 0 {
		c.NostrRelays = o.NostrRelays
	}
	if o.TSAURL != "" {
		c.TSAURL = o.TSAURL
	}
	return nil
}

// Validate fails closed on configuration that would make witness
// verification impossible to perform correctly (spec.md §7
// CONFIG_MISSING).
func (c *Config) Validate() error {
	var errs []string
	if c.EthereumURL != "" && c.AlchemyOrRPCKey == "" {
		errs = append(errs, "AQUA_RPC_KEY is required when ETHEREUM_URL is set (spec.md CONFIG_MISSING)")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

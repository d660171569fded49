package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TLSConfig holds paths to the PEM files needed for mTLS.
// When nil or all paths empty, the node falls back to plain TCP.
type TLSConfig struct {
	CACert   string `json:"ca_cert"`   // CA certificate PEM path
	NodeCert string `json:"node_cert"` // node certificate PEM path
	NodeKey  string `json:"node_key"`  // node private key PEM path
}

// SeedPeer identifies a remote node to connect to on startup.
type SeedPeer struct {
	ID   string `json:"id"`   // remote node ID
	Addr string `json:"addr"` // host:port
}

// GenesisConfig describes the chain's initial state.
type GenesisConfig struct {
	ChainID    string            `json:"chain_id"`
	Alloc      map[string]uint64 `json:"alloc"`       // pubkey hex → initial balance
	Validators map[string]uint64 `json:"validators"`  // era-0 pubkey hex → bonded weight
}

// Fraction is a JSON-friendly numerator/denominator pair, mirroring the
// ratio format the era reward calculator consumes. It is kept distinct
// from rewards.Rational so this package never imports rewards; cmd/node
// converts at the boundary.
type Fraction struct {
	Num uint64 `json:"num"`
	Den uint64 `json:"den"`
}

// EraConfig holds every parameter governing era/era-switch timing and the
// era reward calculator's composition of block-production, finality
// signature, and finder's-fee proportions.
type EraConfig struct {
	MinimumEraHeight  uint64 `json:"minimum_era_height"`
	MinimumBlockTime  int64  `json:"minimum_block_time_ms"`
	EraDuration       int64  `json:"era_duration_ms"`
	UnbondingDelay    uint64 `json:"unbonding_delay"`
	AuctionDelay      uint64 `json:"auction_delay"`

	SignatureRewardsMaxDelay int64 `json:"signature_rewards_max_delay"`

	RoundSeigniorageRate        Fraction `json:"round_seigniorage_rate"`
	FindersFee                  Fraction `json:"finders_fee"`
	FinalitySignatureProportion Fraction `json:"finality_signature_proportion"`
}

// BlockLimitsConfig mirrors core.BlockLimits in JSON-friendly form.
type BlockLimitsConfig struct {
	MaxDeployCount        int   `json:"block_max_deploy_count"`
	MaxTransferCount      int   `json:"block_max_transfer_count"`
	GasBudget             uint64 `json:"block_gas_budget"`
	TimestampWindowMillis int64 `json:"block_timestamp_window_ms"`
}

// Config holds all node configuration.
type Config struct {
	NodeID      string `json:"node_id"`
	DataDir     string `json:"data_dir"`
	RPCPort     int    `json:"rpc_port"`
	P2PPort     int    `json:"p2p_port"`
	MaxBlockTxs int    `json:"max_block_txs"` // max transactions per block; 0 → 500

	MaxQueryDepth int64 `json:"max_query_depth"` // loaded from JSON; no component reads it

	Validators   []string          `json:"validators"` // authorised proposer pubkey hexes
	Genesis      GenesisConfig     `json:"genesis"`
	Era          EraConfig         `json:"era"`
	BlockLimits  BlockLimitsConfig `json:"block_limits"`
	SeedPeers    []SeedPeer        `json:"seed_peers,omitempty"`     // initial peers to connect to
	TLS          *TLSConfig        `json:"tls,omitempty"`            // nil → plain TCP
	RPCAuthToken string            `json:"rpc_auth_token,omitempty"` // empty → no auth
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:        "node0",
		DataDir:       "./data",
		RPCPort:       8545,
		P2PPort:       30303,
		MaxBlockTxs:   500,
		MaxQueryDepth: 1024,
		Genesis: GenesisConfig{
			ChainID:    "novachain-dev",
			Alloc:      map[string]uint64{},
			Validators: map[string]uint64{},
		},
		Era: EraConfig{
			MinimumEraHeight:             100,
			MinimumBlockTime:             int64(8 * time.Second / time.Millisecond),
			EraDuration:                  int64(2 * time.Hour / time.Millisecond),
			UnbondingDelay:               14,
			AuctionDelay:                 1,
			SignatureRewardsMaxDelay:     5,
			RoundSeigniorageRate:         Fraction{Num: 1, Den: 4200000000},
			FindersFee:                   Fraction{Num: 1, Den: 20},
			FinalitySignatureProportion:  Fraction{Num: 1, Den: 2},
		},
		BlockLimits: BlockLimitsConfig{
			MaxDeployCount:        50,
			MaxTransferCount:      1000,
			GasBudget:             10_000_000_000,
			TimestampWindowMillis: int64(5 * time.Minute / time.Millisecond),
		},
	}
}

// Load reads a JSON config file from path and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Genesis.ChainID == "" {
		return fmt.Errorf("genesis.chain_id must not be empty")
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		return fmt.Errorf("rpc_port must be 1-65535, got %d", c.RPCPort)
	}
	if c.P2PPort <= 0 || c.P2PPort > 65535 {
		return fmt.Errorf("p2p_port must be 1-65535, got %d", c.P2PPort)
	}
	if c.RPCPort == c.P2PPort {
		return fmt.Errorf("rpc_port and p2p_port must not be the same (%d)", c.RPCPort)
	}
	if len(c.Validators) == 0 {
		return fmt.Errorf("validators list must not be empty")
	}
	for i, v := range c.Validators {
		b, err := hex.DecodeString(v)
		if err != nil || len(b) != 32 {
			return fmt.Errorf("validators[%d]: must be 64-char hex (32 bytes ed25519 pubkey), got %q", i, v)
		}
	}
	if c.Era.MinimumEraHeight == 0 {
		return fmt.Errorf("era.minimum_era_height must be > 0")
	}
	if c.Era.SignatureRewardsMaxDelay < 0 {
		return fmt.Errorf("era.signature_rewards_max_delay must be >= 0")
	}
	if c.Era.RoundSeigniorageRate.Den == 0 || c.Era.FindersFee.Den == 0 || c.Era.FinalitySignatureProportion.Den == 0 {
		return fmt.Errorf("era: all fraction denominators must be non-zero")
	}
	if c.Era.FindersFee.Num > c.Era.FindersFee.Den {
		return fmt.Errorf("era.finders_fee must be <= 1")
	}
	if c.Era.FinalitySignatureProportion.Num > c.Era.FinalitySignatureProportion.Den {
		return fmt.Errorf("era.finality_signature_proportion must be <= 1")
	}
	if c.BlockLimits.MaxDeployCount <= 0 {
		return fmt.Errorf("block_limits.block_max_deploy_count must be > 0")
	}
	if c.BlockLimits.MaxTransferCount <= 0 {
		return fmt.Errorf("block_limits.block_max_transfer_count must be > 0")
	}
	if c.BlockLimits.GasBudget == 0 {
		return fmt.Errorf("block_limits.block_gas_budget must be > 0")
	}
	if c.TLS != nil {
		t := c.TLS
		allSet := t.CACert != "" && t.NodeCert != "" && t.NodeKey != ""
		allEmpty := t.CACert == "" && t.NodeCert == "" && t.NodeKey == ""
		if !allSet && !allEmpty {
			return fmt.Errorf("tls: all three paths (ca_cert, node_cert, node_key) must be set or all empty")
		}
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: hardcoded constants every ledger instance must agree on
//   - Node settings: runtime configuration (mining threads, logging)
package config

import "time"

// =============================================================================
// Protocol constants
// =============================================================================

// Difficulty is the number of leading '0' hex characters a block hash must
// carry. Changing it changes which chains are valid.
const Difficulty = 4

// Genesis block constants. The genesis block is a bootstrap exception: its
// hash is fixed data, not the result of mining.
const (
	GenesisIndex    uint64 = 1
	GenesisNonce    uint64 = 1234
	GenesisPayload         = "Genesis Block"
	GenesisHash            = "0000111111111111111111111111111111111111111111111111111111111111"
	GenesisPrevHash        = "0000000000000000000000000000000000000000000000000000000000000000"
)

// =============================================================================
// Node Configuration (runtime settings)
// =============================================================================

// Config holds runtime configuration.
// These settings never affect which blocks are valid.
type Config struct {
	// Mining
	Mining MiningConfig

	// Logging
	Log LogConfig
}

// MaxMiningThreads caps the number of parallel mining goroutines.
const MaxMiningThreads = 256

// MiningConfig holds block production settings.
type MiningConfig struct {
	Threads int           `conf:"mining.threads"` // Parallel nonce search workers (PoW)
	Timeout time.Duration `conf:"mining.timeout"` // 0 = mine until a nonce is found
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

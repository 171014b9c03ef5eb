package block

import (
	"github.com/Klingon-tech/powledger/config"
	"github.com/Klingon-tech/powledger/pkg/types"
)

// Genesis hash values, parsed once from the protocol constants.
var (
	GenesisHash     = types.MustHexToHash(config.GenesisHash)
	GenesisPrevHash = types.MustHexToHash(config.GenesisPrevHash)
)

// Genesis returns the hardcoded bootstrap block.
//
// Genesis is never mined. Its hash is a constant that already carries the
// required zero prefix, so it is not the digest of its own fields and
// VerifyHash fails on it. Chain validation never applies the block rules to
// genesis itself, only to its successors.
func Genesis(timestamp int64) *Block {
	return &Block{
		Index:     config.GenesisIndex,
		Nonce:     config.GenesisNonce,
		Payload:   []byte(config.GenesisPayload),
		Hash:      GenesisHash,
		PrevHash:  GenesisPrevHash,
		Timestamp: timestamp,
	}
}

// IsGenesis reports whether b carries the genesis constants.
func IsGenesis(b *Block) bool {
	return b != nil &&
		b.Index == config.GenesisIndex &&
		b.Hash == GenesisHash &&
		b.PrevHash == GenesisPrevHash
}

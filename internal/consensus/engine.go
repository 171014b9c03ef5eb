// Package consensus implements the proof-of-work rules of the ledger.
package consensus

import "github.com/Klingon-tech/powledger/pkg/block"

// Engine verifies the work carried by a block hash.
type Engine interface {
	VerifyBlock(b *block.Block) error
}

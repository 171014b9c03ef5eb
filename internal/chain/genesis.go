package chain

import (
	"errors"

	"github.com/Klingon-tech/powledger/pkg/block"
)

// ErrAlreadyInitialized is returned by InitGenesis on a non-empty chain.
var ErrAlreadyInitialized = errors.New("chain already has a genesis block")

// InitGenesis inserts the genesis block into an empty chain.
func (c *Chain) InitGenesis() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) != 0 {
		return ErrAlreadyInitialized
	}
	c.insertGenesis()
	return nil
}

// insertGenesis appends the hardcoded genesis block. Genesis bypasses
// ValidateBlock: it has no predecessor and its hash is not mined.
// Callers must hold c.mu.
func (c *Chain) insertGenesis() {
	g := block.Genesis(c.now().Unix())
	c.blocks = append(c.blocks, g)
	c.logger.Info().
		Uint64("index", g.Index).
		Str("hash", g.Hash.String()).
		Msg("genesis block inserted")
}

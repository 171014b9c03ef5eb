// Package chain implements the append-only ledger.
package chain

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/powledger/internal/consensus"
	"github.com/Klingon-tech/powledger/internal/log"
	"github.com/Klingon-tech/powledger/pkg/block"
	"github.com/Klingon-tech/powledger/pkg/types"
)

// Chain is an ordered, append-only sequence of blocks. Blocks are copied on
// the way in and on the way out, so stored blocks cannot be mutated through
// aliases.
type Chain struct {
	mu     sync.Mutex // Protects blocks.
	blocks []*block.Block
	engine consensus.Engine
	logger zerolog.Logger
	now    func() time.Time
}

// New creates an empty chain that checks work with the given engine.
func New(engine consensus.Engine) (*Chain, error) {
	if engine == nil {
		return nil, fmt.Errorf("consensus engine is nil")
	}
	return &Chain{
		engine: engine,
		logger: log.Chain,
		now:    time.Now,
	}, nil
}

// SetLogger replaces the logger that receives append and audit diagnostics.
func (c *Chain) SetLogger(l zerolog.Logger) {
	c.logger = l
}

// SetClock replaces the clock used to stamp the genesis block.
func (c *Chain) SetClock(now func() time.Time) {
	c.now = now
}

// Append adds b to the end of the chain.
//
// On an empty chain the supplied block is discarded and the genesis block
// is inserted instead. Otherwise b must pass ValidateBlock against the
// current tip; a rejected block leaves the chain unchanged and the returned
// error is a *RejectError naming the failed check.
func (c *Chain) Append(b *block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		// TODO: decide whether an append on an empty chain should reject the
		// supplied block instead of silently substituting genesis.
		if b != nil {
			c.logger.Warn().
				Uint64("index", b.Index).
				Msg("empty chain: supplied block discarded, genesis inserted")
		}
		c.insertGenesis()
		return nil
	}
	if b == nil {
		return block.ErrNilBlock
	}

	tip := c.blocks[len(c.blocks)-1]
	if err := ValidateBlock(c.engine, b, tip); err != nil {
		c.logger.Warn().
			Uint64("index", b.Index).
			Stringer("reason", ReasonOf(err)).
			Err(err).
			Msg("block could not be added to the chain")
		return err
	}

	c.blocks = append(c.blocks, b.Copy())
	c.logger.Info().
		Uint64("index", b.Index).
		Str("hash", b.Hash.String()).
		Msg("block added to the chain")
	return nil
}

// ValidateBlock checks candidate against predecessor using the chain's engine.
func (c *Chain) ValidateBlock(candidate, predecessor *block.Block) error {
	return ValidateBlock(c.engine, candidate, predecessor)
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Blocks returns copies of all blocks in order.
func (c *Chain) Blocks() []*block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*block.Block, len(c.blocks))
	for i, b := range c.blocks {
		out[i] = b.Copy()
	}
	return out
}

// Tip returns a copy of the last block, or false if the chain is empty.
func (c *Chain) Tip() (*block.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.blocks) == 0 {
		return nil, false
	}
	return c.blocks[len(c.blocks)-1].Copy(), true
}

// Height returns the index of the last block (0 for an empty chain).
func (c *Chain) Height() uint64 {
	return c.State().Height
}

// TipHash returns the hash of the last block (zero for an empty chain).
func (c *Chain) TipHash() types.Hash {
	return c.State().TipHash
}

// State returns a snapshot of the chain tip.
func (c *Chain) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.blocks) == 0 {
		return State{}
	}
	tip := c.blocks[len(c.blocks)-1]
	return State{
		Length:       len(c.blocks),
		Height:       tip.Index,
		TipHash:      tip.Hash,
		TipTimestamp: tip.Timestamp,
	}
}

// Verify audits the chain's own blocks.
func (c *Chain) Verify() error {
	return c.Audit(c.Blocks())
}

// Package miner produces blocks on top of a chain tip.
package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/powledger/internal/consensus"
	"github.com/Klingon-tech/powledger/internal/log"
	"github.com/Klingon-tech/powledger/pkg/block"
	"github.com/Klingon-tech/powledger/pkg/types"
)

// ChainState provides read-only access to the current chain tip.
type ChainState interface {
	Height() uint64
	TipHash() types.Hash
}

// Miner produces new blocks.
type Miner struct {
	chain   ChainState
	engine  *consensus.PoW
	timeout time.Duration // 0 = no limit
	logger  zerolog.Logger
}

// New creates a new block producer. timeout bounds each ProduceBlock call;
// 0 mines until a nonce is found.
func New(chain ChainState, engine *consensus.PoW, timeout time.Duration) *Miner {
	return &Miner{
		chain:   chain,
		engine:  engine,
		timeout: timeout,
		logger:  log.Miner,
	}
}

// SetLogger replaces the miner's logger.
func (m *Miner) SetLogger(l zerolog.Logger) {
	m.logger = l
}

// ProduceBlock mines the next block carrying payload.
// The block is NOT applied to the chain; the caller must call Append.
func (m *Miner) ProduceBlock(payload []byte) (*block.Block, error) {
	return m.ProduceBlockCtx(context.Background(), payload)
}

// ProduceBlockCtx mines the next block with cancellation support.
// When the context is cancelled or the miner's timeout elapses, mining stops.
func (m *Miner) ProduceBlockCtx(ctx context.Context, payload []byte) (*block.Block, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	index := m.chain.Height() + 1
	prev := m.chain.TipHash()

	blk, err := m.engine.MineCtx(ctx, index, prev, payload)
	if err != nil {
		m.logger.Warn().Err(err).Uint64("index", index).Msg("mining aborted")
		return nil, fmt.Errorf("mine block %d: %w", index, err)
	}
	m.logger.Debug().
		Uint64("index", blk.Index).
		Str("prev_hash", prev.String()).
		Msg("produced block")
	return blk, nil
}

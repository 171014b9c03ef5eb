package chain

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/powledger/internal/consensus"
	"github.com/Klingon-tech/powledger/pkg/block"
)

// Audit re-derives the validity of an arbitrary block sequence from scratch.
// Sequences of length 0 or 1 are valid without any checks. Otherwise every
// adjacent pair must pass ValidateBlock; the first failing pair ends the
// audit. The first block is trusted as genesis and never checked itself.
func Audit(engine consensus.Engine, logger zerolog.Logger, blocks []*block.Block) error {
	switch len(blocks) {
	case 0:
		logger.Info().Msg("the chain is empty")
	case 1:
		logger.Info().Msg("the chain contains only the genesis block")
	default:
		for i := 1; i < len(blocks); i++ {
			if err := ValidateBlock(engine, blocks[i], blocks[i-1]); err != nil {
				logger.Warn().
					Int("position", i).
					Stringer("reason", ReasonOf(err)).
					Err(err).
					Msg("the chain is invalid")
				return fmt.Errorf("position %d: %w", i, err)
			}
		}
	}
	logger.Info().Int("length", len(blocks)).Msg("the chain is valid")
	return nil
}

// Audit checks blocks with the chain's engine and logger. blocks need not be
// the chain's own contents.
func (c *Chain) Audit(blocks []*block.Block) error {
	return Audit(c.engine, c.logger, blocks)
}

// IsValid reports whether Audit accepts blocks.
func (c *Chain) IsValid(blocks []*block.Block) bool {
	return c.Audit(blocks) == nil
}

package chain

import "github.com/Klingon-tech/powledger/pkg/types"

// State holds the current chain tip state.
type State struct {
	Length       int        // Number of blocks, genesis included.
	Height       uint64     // Index of the tip block.
	TipHash      types.Hash // Hash of the tip block.
	TipTimestamp int64      // Timestamp of the tip block.
}

// IsEmpty returns true if the chain holds no blocks, not even genesis.
func (s *State) IsEmpty() bool {
	return s.Length == 0
}

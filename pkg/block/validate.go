package block

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrNilBlock     = errors.New("block is nil")
	ErrHashMismatch = errors.New("stored hash does not match recomputed hash")
)

// VerifyHash checks that the stored hash equals the hash recomputed from
// the block's fields. Any change to a mined block's fields fails this check.
func (b *Block) VerifyHash() error {
	if b == nil {
		return ErrNilBlock
	}
	if computed := b.ComputeHash(); computed != b.Hash {
		return fmt.Errorf("%w: stored=%s computed=%s", ErrHashMismatch, b.Hash, computed)
	}
	return nil
}

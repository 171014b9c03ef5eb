package chain

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/powledger/internal/consensus"
	"github.com/Klingon-tech/powledger/pkg/block"
)

// Rejection errors, one per block-validity check.
var (
	ErrLinkageMismatch        = errors.New("previous hash does not match predecessor hash")
	ErrInsufficientDifficulty = errors.New("hash does not meet difficulty")
	ErrNonSequentialIndex     = errors.New("index is not predecessor index + 1")
	ErrDigestMismatch         = errors.New("hash does not match block contents")
)

// Reason identifies which validity check a block failed.
type Reason int

// Rejection reasons, in the order the checks run.
const (
	ReasonNone Reason = iota
	ReasonLinkageMismatch
	ReasonInsufficientDifficulty
	ReasonNonSequentialIndex
	ReasonDigestMismatch
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "None"
	case ReasonLinkageMismatch:
		return "LinkageMismatch"
	case ReasonInsufficientDifficulty:
		return "InsufficientDifficulty"
	case ReasonNonSequentialIndex:
		return "NonSequentialIndex"
	case ReasonDigestMismatch:
		return "DigestMismatch"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Err returns the sentinel error for r, or nil for ReasonNone.
func (r Reason) Err() error {
	switch r {
	case ReasonLinkageMismatch:
		return ErrLinkageMismatch
	case ReasonInsufficientDifficulty:
		return ErrInsufficientDifficulty
	case ReasonNonSequentialIndex:
		return ErrNonSequentialIndex
	case ReasonDigestMismatch:
		return ErrDigestMismatch
	default:
		return nil
	}
}

// RejectError reports a block that failed validation.
// errors.Is matches both the reason sentinel and the underlying detail.
type RejectError struct {
	Index  uint64 // Index of the rejected block.
	Reason Reason
	Detail error
}

func (e *RejectError) Error() string {
	if e.Detail == nil {
		return fmt.Sprintf("block %d rejected: %v", e.Index, e.Reason.Err())
	}
	return fmt.Sprintf("block %d rejected: %v: %v", e.Index, e.Reason.Err(), e.Detail)
}

// Unwrap returns the reason sentinel and the detail error.
func (e *RejectError) Unwrap() []error {
	var errs []error
	if sentinel := e.Reason.Err(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Detail != nil {
		errs = append(errs, e.Detail)
	}
	return errs
}

// ReasonOf extracts the rejection reason from err. It returns ReasonNone when
// err is not a rejection.
func ReasonOf(err error) Reason {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonNone
}

func reject(b *block.Block, r Reason, detail error) error {
	return &RejectError{Index: b.Index, Reason: r, Detail: detail}
}

// ValidateBlock checks candidate against its predecessor. The checks run in
// a fixed order and the first failure is returned:
//
//  1. candidate.PrevHash equals predecessor.Hash
//  2. candidate.Hash meets the engine's difficulty
//  3. candidate.Index equals predecessor.Index + 1
//  4. candidate.Hash equals the hash recomputed from candidate's fields
func ValidateBlock(engine consensus.Engine, candidate, predecessor *block.Block) error {
	if candidate == nil || predecessor == nil {
		return block.ErrNilBlock
	}

	if candidate.PrevHash != predecessor.Hash {
		return reject(candidate, ReasonLinkageMismatch,
			fmt.Errorf("prev_hash=%s predecessor=%s", candidate.PrevHash, predecessor.Hash))
	}
	if err := engine.VerifyBlock(candidate); err != nil {
		return reject(candidate, ReasonInsufficientDifficulty, err)
	}
	if candidate.Index != predecessor.Index+1 {
		return reject(candidate, ReasonNonSequentialIndex,
			fmt.Errorf("index=%d predecessor=%d", candidate.Index, predecessor.Index))
	}
	if err := candidate.VerifyHash(); err != nil {
		return reject(candidate, ReasonDigestMismatch, err)
	}
	return nil
}

package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/powledger/internal/log"
	"github.com/Klingon-tech/powledger/pkg/block"
	"github.com/Klingon-tech/powledger/pkg/crypto"
	"github.com/Klingon-tech/powledger/pkg/types"
)

// PoW errors.
var (
	ErrInsufficientWork    = errors.New("hash does not meet difficulty target")
	ErrZeroDifficulty      = errors.New("difficulty must be > 0")
	ErrBadDifficulty       = errors.New("difficulty exceeds hash length")
	ErrNonceSpaceExhausted = errors.New("nonce space exhausted")
)

// cancelCheckMask controls how often the search polls its context.
// The context is checked whenever nonce&cancelCheckMask == 0.
const cancelCheckMask = 0xFFF

var _ Engine = (*PoW)(nil)

// PoW implements proof-of-work over the block's hex hash text: a hash is
// valid when it starts with Difficulty '0' characters.
type PoW struct {
	Difficulty int // Leading zero hex digits required.

	// Threads controls the number of parallel mining goroutines.
	// 0 or 1 = single-threaded (default). Each goroutine searches a
	// strided partition of the nonce space.
	Threads int

	// Logger receives mining progress.
	Logger zerolog.Logger

	// Now is the clock used to stamp new blocks. nil = time.Now.
	Now func() time.Time
}

// NewPoW creates a new PoW engine requiring difficulty leading zero hex digits.
func NewPoW(difficulty int) (*PoW, error) {
	if difficulty <= 0 {
		return nil, ErrZeroDifficulty
	}
	if difficulty > types.HexSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBadDifficulty, difficulty, types.HexSize)
	}
	return &PoW{
		Difficulty: difficulty,
		Logger:     log.Consensus,
	}, nil
}

// MeetsDifficulty reports whether the hex text of h starts with k '0' characters.
func MeetsDifficulty(h types.Hash, k int) bool {
	return h.HasZeroPrefix(k)
}

// MeetsDifficulty reports whether h satisfies this engine's difficulty.
func (p *PoW) MeetsDifficulty(h types.Hash) bool {
	return MeetsDifficulty(h, p.Difficulty)
}

// VerifyBlock checks that the stored block hash meets the difficulty.
// It does not recompute the hash; see block.VerifyHash for that.
func (p *PoW) VerifyBlock(b *block.Block) error {
	if b == nil {
		return block.ErrNilBlock
	}
	if !p.MeetsDifficulty(b.Hash) {
		return fmt.Errorf("%w: %s has %d leading zeros, want %d",
			ErrInsufficientWork, b.Hash, b.Hash.LeadingZeroDigits(), p.Difficulty)
	}
	return nil
}

// Mine builds and mines a block. It stamps the block once, then searches
// nonces from 1 upward until the hash meets the difficulty. Mine does not
// give up: if the whole nonce space fails, it restamps and searches again.
// It panics if the engine has no valid difficulty; build engines with NewPoW.
func (p *PoW) Mine(index uint64, prevHash types.Hash, payload []byte) *block.Block {
	for {
		blk, err := p.MineCtx(context.Background(), index, prevHash, payload)
		if err == nil {
			return blk
		}
		if !errors.Is(err, ErrNonceSpaceExhausted) {
			panic(fmt.Sprintf("consensus: invalid PoW engine: %v", err))
		}
		p.Logger.Warn().Err(err).Uint64("index", index).Msg("restamping block")
	}
}

// MineCtx mines a block with cancellation support.
// When the context is cancelled, mining stops and ctx.Err() is returned.
// If Threads > 1, mining runs in parallel goroutines with strided nonce partitioning.
func (p *PoW) MineCtx(ctx context.Context, index uint64, prevHash types.Hash, payload []byte) (*block.Block, error) {
	if p.Difficulty <= 0 {
		return nil, ErrZeroDifficulty
	}

	timestamp := p.now().Unix()
	prefix := block.SigningPrefix(index, payload, prevHash, timestamp)

	p.Logger.Info().
		Uint64("index", index).
		Int("difficulty", p.Difficulty).
		Int("threads", max(p.Threads, 1)).
		Msg("mining block")
	start := time.Now()

	var (
		nonce uint64
		hash  types.Hash
		err   error
	)
	if p.Threads <= 1 {
		nonce, hash, err = p.searchSingle(ctx, prefix)
	} else {
		nonce, hash, err = p.searchParallel(ctx, prefix, p.Threads)
	}
	if err != nil {
		return nil, err
	}

	p.Logger.Info().
		Uint64("index", index).
		Uint64("nonce", nonce).
		Str("hash", hash.String()).
		Dur("elapsed", time.Since(start)).
		Msg("mined block")

	return block.NewBlock(index, prevHash, payload, timestamp, nonce, hash), nil
}

func (p *PoW) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// searchSingle mines with a single goroutine.
func (p *PoW) searchSingle(ctx context.Context, prefix []byte) (uint64, types.Hash, error) {
	buf := make([]byte, len(prefix), len(prefix)+20)
	copy(buf, prefix)

	for nonce := uint64(1); ; nonce++ {
		if nonce&cancelCheckMask == 0 {
			select {
			case <-ctx.Done():
				return 0, types.Hash{}, ctx.Err()
			default:
			}
		}

		hash := crypto.Hash(block.AppendNonce(buf[:len(prefix)], nonce))
		if p.MeetsDifficulty(hash) {
			return nonce, hash, nil
		}
		if nonce == ^uint64(0) {
			return 0, types.Hash{}, ErrNonceSpaceExhausted
		}
	}
}

// searchParallel mines with multiple goroutines, each searching a strided
// partition of the nonce space (goroutine i starts at nonce=1+i, step=threads).
func (p *PoW) searchParallel(ctx context.Context, prefix []byte, threads int) (uint64, types.Hash, error) {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		nonce uint64
		hash  types.Hash
	}
	found := make(chan result, 1)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		startNonce := uint64(1 + i)
		stride := uint64(threads)
		go func() {
			defer wg.Done()
			buf := make([]byte, len(prefix), len(prefix)+20)
			copy(buf, prefix)

			for nonce, n := startNonce, uint64(0); ; nonce, n = nonce+stride, n+1 {
				// Check cancellation every ~4096 iterations per goroutine.
				if n&cancelCheckMask == 0 {
					select {
					case <-workCtx.Done():
						return
					default:
					}
				}

				hash := crypto.Hash(block.AppendNonce(buf[:len(prefix)], nonce))
				if p.MeetsDifficulty(hash) {
					select {
					case found <- result{nonce: nonce, hash: hash}:
					default:
					}
					cancel()
					return
				}

				// Overflow: would wrap around past max uint64.
				if nonce > ^uint64(0)-stride {
					return
				}
			}
		}()
	}

	// Wait in background so goroutines are cleaned up.
	go func() {
		wg.Wait()
		close(found)
	}()

	// Select on the caller's context, not workCtx: the winner cancels workCtx.
	select {
	case r, ok := <-found:
		if !ok {
			if err := ctx.Err(); err != nil {
				return 0, types.Hash{}, err
			}
			return 0, types.Hash{}, ErrNonceSpaceExhausted
		}
		return r.nonce, r.hash, nil
	case <-ctx.Done():
		return 0, types.Hash{}, ctx.Err()
	}
}

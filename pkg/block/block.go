// Package block defines the ledger block type, its canonical encoding and
// the genesis bootstrap block.
package block

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/powledger/pkg/crypto"
	"github.com/Klingon-tech/powledger/pkg/types"
)

// Block is a single ledger record. A block is treated as immutable once
// mined; the chain stores and hands out copies.
type Block struct {
	Index     uint64     `json:"index"`
	Nonce     uint64     `json:"nonce"`
	Payload   []byte     `json:"payload"`
	Hash      types.Hash `json:"hash"`
	PrevHash  types.Hash `json:"prev_hash"`
	Timestamp int64      `json:"timestamp"`
}

// NewBlock assembles a block from already-known fields. It does not mine;
// see consensus.PoW for that.
func NewBlock(index uint64, prevHash types.Hash, payload []byte, timestamp int64, nonce uint64, hash types.Hash) *Block {
	return &Block{
		Index:     index,
		Nonce:     nonce,
		Payload:   clone(payload),
		Hash:      hash,
		PrevHash:  prevHash,
		Timestamp: timestamp,
	}
}

// SigningPrefix returns the canonical encoding of everything but the nonce.
// Miners compute it once and append each candidate nonce.
func SigningPrefix(index uint64, payload []byte, prevHash types.Hash, timestamp int64) []byte {
	buf := make([]byte, 0, 20+len(payload)+types.HexSize+20+20)
	buf = strconv.AppendUint(buf, index, 10)
	buf = append(buf, payload...)
	buf = hex.AppendEncode(buf, prevHash[:])
	buf = strconv.AppendInt(buf, timestamp, 10)
	return buf
}

// AppendNonce appends the decimal nonce to a signing prefix.
func AppendNonce(prefix []byte, nonce uint64) []byte {
	return strconv.AppendUint(prefix, nonce, 10)
}

// SigningBytes returns the canonical bytes that are hashed.
// Format: index | payload | hex(prev_hash) | timestamp | nonce, all decimal
// text except the raw payload, no separators.
func (b *Block) SigningBytes() []byte {
	return AppendNonce(SigningPrefix(b.Index, b.Payload, b.PrevHash, b.Timestamp), b.Nonce)
}

// ComputeHash recomputes the digest from the block's own fields.
func (b *Block) ComputeHash() types.Hash {
	return crypto.Hash(b.SigningBytes())
}

// Copy returns a deep copy of the block.
func (b *Block) Copy() *Block {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Payload = clone(b.Payload)
	return &cp
}

// String renders the block for debugging output.
func (b *Block) String() string {
	if b == nil {
		return "Block(nil)"
	}
	return fmt.Sprintf("Block{Index: %d, Nonce: %d, Payload: %q, Hash: %s, PrevHash: %s, Timestamp: %d}",
		b.Index, b.Nonce, b.Payload, b.Hash, b.PrevHash, b.Timestamp)
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

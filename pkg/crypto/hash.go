// Package crypto provides the digest function used by the ledger.
package crypto

import (
	"github.com/Klingon-tech/powledger/pkg/types"
	sha256 "github.com/minio/sha256-simd"
)

// Hash computes the SHA-256 digest of the input data.
func Hash(data []byte) types.Hash {
	return sha256.Sum256(data)
}

// HashString computes the SHA-256 digest of s.
func HashString(s string) types.Hash {
	return Hash([]byte(s))
}

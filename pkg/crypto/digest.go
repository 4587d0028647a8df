// Package crypto provides the digest and signing primitives shared by the
// receipt ledger and the snapshot codec.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest is a collision-resistant hash over raw bytes.
//
// The ledger chain hash and the snapshot checksum use the same Digest so
// both trust surfaces rest on one primitive. Implementations must be pure:
// identical input, identical output, no side effects.
type Digest interface {
	// Sum computes the fixed-size digest of data.
	Sum(data []byte) [32]byte

	// Name identifies the algorithm (e.g. "sha256") for wire formats.
	Name() string
}

// SHA256 implements Digest using crypto/sha256.
type SHA256 struct{}

// NewSHA256 returns the default digest used across trustcore.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

func (d *SHA256) Sum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (d *SHA256) Name() string {
	return "sha256"
}

// FormatSum renders a digest as the prefixed hex string used in receipts
// and chain heads, e.g. "sha256:ab12...".
func FormatSum(d Digest, sum [32]byte) string {
	return fmt.Sprintf("%s:%s", d.Name(), hex.EncodeToString(sum[:]))
}

// SumHex computes the digest of data and renders it with FormatSum.
func SumHex(d Digest, data []byte) string {
	return FormatSum(d, d.Sum(data))
}

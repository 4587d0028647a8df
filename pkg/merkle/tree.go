// Package merkle builds Merkle trees over receipt chains, so a single
// receipt can be proven to belong to an exported ledger segment without
// shipping the whole segment.
package merkle

import (
	"fmt"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
)

// Domain separation prefixes. Leaf and node hashes must never collide.
const (
	leafPrefix = "trustcore:receipt:leaf:v1\x00"
	nodePrefix = "trustcore:receipt:node:v1\x00"
)

// Tree is a Merkle tree whose leaves are receipt link hashes in chain
// order. Odd nodes are promoted unpaired rather than duplicated.
type Tree struct {
	digest crypto.Digest
	leaves []leaf
	levels [][]string
	root   string
}

type leaf struct {
	position uint64
	hash     string
}

// BuildReceiptTree hashes the receipts of a segment into a tree. The
// receipts must already be in ascending chain order.
func BuildReceiptTree(d crypto.Digest, rs []contracts.Receipt) (*Tree, error) {
	if len(rs) == 0 {
		return nil, fmt.Errorf("cannot build tree over zero receipts")
	}
	t := &Tree{digest: d, leaves: make([]leaf, len(rs))}
	level := make([]string, len(rs))
	for i, r := range rs {
		h := leafHash(d, r)
		t.leaves[i] = leaf{position: r.ChainPosition, hash: h}
		level[i] = h
	}

	for len(level) > 1 {
		t.levels = append(t.levels, level)
		level = nextLevel(d, level)
	}
	t.levels = append(t.levels, level)
	t.root = level[0]
	return t, nil
}

// Root returns the tree root hash.
func (t *Tree) Root() string {
	return t.root
}

// leafHash binds the receipt's chain position to its link hash, so a
// proof for one position cannot be replayed at another.
func leafHash(d crypto.Digest, r contracts.Receipt) string {
	data := fmt.Sprintf("%s%d\x00%s", leafPrefix, r.ChainPosition, r.Hash)
	return crypto.SumHex(d, []byte(data))
}

func nodeHash(d crypto.Digest, left, right string) string {
	return crypto.SumHex(d, []byte(nodePrefix+left+right))
}

func nextLevel(d crypto.Digest, level []string) []string {
	next := make([]string, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 == len(level) {
			next = append(next, level[i])
			continue
		}
		next = append(next, nodeHash(d, level[i], level[i+1]))
	}
	return next
}

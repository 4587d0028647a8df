package merkle

import (
	"fmt"

	"github.com/verity-labs/trustcore/pkg/crypto"
)

// InclusionProof shows that the receipt at Position is a leaf of the
// tree with root Root.
type InclusionProof struct {
	Position uint64      `json:"position"`
	LeafHash string      `json:"leaf_hash"`
	Root     string      `json:"root"`
	Path     []ProofStep `json:"path"`
}

// ProofStep is one sibling on the way from leaf to root.
type ProofStep struct {
	Side    string `json:"side"` // "L" or "R"
	Sibling string `json:"sibling"`
}

// Prove builds an inclusion proof for the receipt at the given chain
// position.
func (t *Tree) Prove(position uint64) (InclusionProof, error) {
	idx := -1
	for i, l := range t.leaves {
		if l.position == position {
			idx = i
			break
		}
	}
	if idx == -1 {
		return InclusionProof{}, fmt.Errorf("no leaf at chain position %d", position)
	}

	proof := InclusionProof{
		Position: position,
		LeafHash: t.leaves[idx].hash,
		Root:     t.root,
	}
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			side := "R"
			if sibling < idx {
				side = "L"
			}
			proof.Path = append(proof.Path, ProofStep{Side: side, Sibling: level[sibling]})
		}
		idx /= 2
	}
	return proof, nil
}

// VerifyInclusionProof recomputes the path from leaf to root and checks
// it against the expected root.
func VerifyInclusionProof(d crypto.Digest, proof InclusionProof, expectedRoot string) bool {
	if proof.Root != expectedRoot {
		return false
	}
	current := proof.LeafHash
	for _, step := range proof.Path {
		switch step.Side {
		case "L":
			current = nodeHash(d, step.Sibling, current)
		case "R":
			current = nodeHash(d, current, step.Sibling)
		default:
			return false
		}
	}
	return current == expectedRoot
}

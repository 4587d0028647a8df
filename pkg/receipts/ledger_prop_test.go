//go:build property

package receipts

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
)

func TestChainProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	properties := gopter.NewProperties(params)

	actionTypes := gen.OneConstOf("store_fact", "recall_fact", "scan_image", "index_repo")

	properties.Property("any append sequence verifies end to end", prop.ForAll(
		func(types []string) bool {
			ctx := context.Background()
			signer, err := crypto.NewEd25519Signer("prop-key")
			if err != nil {
				return false
			}
			ledger := NewLedger(NewMemoryStore(), signer, crypto.NewSHA256())
			for _, at := range types {
				if _, err := ledger.Append(ctx, memoryAction(at)); err != nil {
					return false
				}
			}
			_, err = ledger.VerifyChain(ctx)
			return err == nil
		},
		gen.SliceOf(actionTypes),
	))

	properties.Property("mutating any receipt breaks verification", prop.ForAll(
		func(types []string, victim uint) bool {
			ctx := context.Background()
			signer, err := crypto.NewEd25519Signer("prop-key")
			if err != nil {
				return false
			}
			store := NewMemoryStore()
			ledger := NewLedger(store, signer, crypto.NewSHA256())
			for _, at := range types {
				if _, err := ledger.Append(ctx, memoryAction(at)); err != nil {
					return false
				}
			}
			idx := int(victim) % len(types)
			store.mu.Lock()
			store.receipts[idx].Action.ActionType += "-tampered"
			store.mu.Unlock()

			_, err = ledger.VerifyChain(ctx)
			return faults.IsCorruption(err)
		},
		gen.SliceOf(actionTypes).SuchThat(func(v []string) bool { return len(v) > 0 }),
		gen.UInt(),
	))

	properties.Property("head always matches last receipt hash", prop.ForAll(
		func(types []string) bool {
			ctx := context.Background()
			signer, err := crypto.NewEd25519Signer("prop-key")
			if err != nil {
				return false
			}
			store := NewMemoryStore()
			ledger := NewLedger(store, signer, crypto.NewSHA256())
			for _, at := range types {
				if _, err := ledger.Append(ctx, memoryAction(at)); err != nil {
					return false
				}
			}
			head, err := ledger.Head(ctx)
			if err != nil {
				return false
			}
			if len(types) == 0 {
				return head == contracts.GenesisHash
			}
			return head == store.receipts[len(types)-1].Hash
		},
		gen.SliceOf(actionTypes),
	))

	properties.TestingRun(t)
}

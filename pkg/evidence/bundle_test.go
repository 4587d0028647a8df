package evidence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
)

func sealFixture(t *testing.T) (Bundle, *Registry) {
	t.Helper()
	ctx := context.Background()
	registry := NewRegistry(crypto.NewSHA256())

	a, err := registry.Register(ctx, contracts.AgentMemory, "fact", "the sky is blue", nil)
	require.NoError(t, err)
	b, err := registry.Register(ctx, contracts.AgentMemory, "fact", "water boils at 100C", nil)
	require.NoError(t, err)

	signer, err := crypto.NewEd25519Signer("bundle-key")
	require.NoError(t, err)
	exporter := NewExporter(registry, signer, crypto.NewSHA256())

	receipt := contracts.Receipt{
		ID: "rcpt_1",
		Action: contracts.NewActionRecord(contracts.AgentMemory, "store_fact", contracts.Success()).
			WithEvidence(b.ID).WithEvidence(a.ID),
	}
	bundle, err := exporter.Seal(ctx, receipt)
	require.NoError(t, err)
	return bundle, registry
}

func TestSealAndVerifyBundle(t *testing.T) {
	bundle, _ := sealFixture(t)

	assert.Equal(t, "rcpt_1", bundle.ReceiptID)
	assert.Len(t, bundle.Records, 2)
	// Records are ordered by evidence ID regardless of reference order.
	assert.Less(t, bundle.Records[0].ID, bundle.Records[1].ID)

	require.NoError(t, VerifyBundle(crypto.NewSHA256(), bundle))
}

func TestVerifyBundleDetectsTampering(t *testing.T) {
	bundle, _ := sealFixture(t)

	tampered := bundle
	tampered.Records = append([]Record(nil), bundle.Records...)
	tampered.Records[0].Content = "the sky is green"
	assert.True(t, faults.IsCorruption(VerifyBundle(crypto.NewSHA256(), tampered)))

	resigned := bundle
	resigned.Signature = "00" + bundle.Signature[2:]
	err := VerifyBundle(crypto.NewSHA256(), resigned)
	assert.Error(t, err)
}

func TestSealFailsOnMissingEvidence(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(crypto.NewSHA256())
	signer, err := crypto.NewEd25519Signer("bundle-key")
	require.NoError(t, err)
	exporter := NewExporter(registry, signer, crypto.NewSHA256())

	receipt := contracts.Receipt{
		ID: "rcpt_1",
		Action: contracts.NewActionRecord(contracts.AgentMemory, "store_fact", contracts.Success()).
			WithEvidence("ev_missing"),
	}
	_, err = exporter.Seal(ctx, receipt)
	assert.True(t, faults.IsNotFound(err))
}

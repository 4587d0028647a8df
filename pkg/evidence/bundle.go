package evidence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verity-labs/trustcore/pkg/canonicalize"
	"github.com/verity-labs/trustcore/pkg/contracts"
	"github.com/verity-labs/trustcore/pkg/crypto"
	"github.com/verity-labs/trustcore/pkg/faults"
)

// Bundle is a sealed, signed package of evidence records backing one
// receipt. The bundle hash covers the records in ID order; the signature
// covers the bundle hash.
type Bundle struct {
	ID         string    `json:"id"`
	ReceiptID  string    `json:"receipt_id"`
	Records    []Record  `json:"records"`
	BundleHash string    `json:"bundle_hash"`
	PublicKey  string    `json:"public_key"`
	Signature  string    `json:"signature"`
	SealedAt   time.Time `json:"sealed_at"`
}

// Exporter seals evidence records into signed bundles.
type Exporter struct {
	registry *Registry
	signer   crypto.Signer
	digest   crypto.Digest
	clock    func() time.Time
}

// NewExporter creates an exporter over the registry.
func NewExporter(registry *Registry, signer crypto.Signer, digest crypto.Digest) *Exporter {
	return &Exporter{
		registry: registry,
		signer:   signer,
		digest:   digest,
		clock:    time.Now,
	}
}

// WithClock overrides the clock for testing.
func (e *Exporter) WithClock(clock func() time.Time) *Exporter {
	e.clock = clock
	return e
}

// Seal collects the receipt's evidence records, verifies each one, and
// signs the result. Any missing or corrupt record fails the seal.
func (e *Exporter) Seal(ctx context.Context, receipt contracts.Receipt) (Bundle, error) {
	ids := append([]string(nil), receipt.Action.EvidenceIDs...)
	sort.Strings(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if err := e.registry.Verify(ctx, id); err != nil {
			return Bundle{}, err
		}
		record, err := e.registry.Get(ctx, id)
		if err != nil {
			return Bundle{}, err
		}
		records = append(records, record)
	}

	raw, err := canonicalize.Marshal(records)
	if err != nil {
		return Bundle{}, faults.Internal("marshal bundle records: %v", err)
	}
	bundleHash := crypto.SumHex(e.digest, raw)

	signature, err := e.signer.Sign([]byte(bundleHash))
	if err != nil {
		return Bundle{}, faults.Infrastructure("sign bundle", err)
	}

	return Bundle{
		ID:         "bdl_" + uuid.NewString(),
		ReceiptID:  receipt.ID,
		Records:    records,
		BundleHash: bundleHash,
		PublicKey:  e.signer.PublicKey(),
		Signature:  signature,
		SealedAt:   e.clock().UTC(),
	}, nil
}

// VerifyBundle re-derives the bundle hash from the carried records and
// checks the signature against the carried public key.
func VerifyBundle(d crypto.Digest, bundle Bundle) error {
	raw, err := canonicalize.Marshal(bundle.Records)
	if err != nil {
		return faults.Internal("marshal bundle records: %v", err)
	}
	expected := crypto.SumHex(d, raw)
	if expected != bundle.BundleHash {
		return faults.Corruption("bundle "+bundle.ID, expected, bundle.BundleHash)
	}

	ok, err := crypto.Verify(bundle.PublicKey, bundle.Signature, []byte(bundle.BundleHash))
	if err != nil {
		return faults.InvalidInput("malformed bundle signature: %v", err)
	}
	if !ok {
		return faults.Corruption("bundle "+bundle.ID+" signature", "valid", "invalid")
	}
	return nil
}

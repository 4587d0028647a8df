package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256Deterministic(t *testing.T) {
	d := NewSHA256()
	a := d.Sum([]byte("the sky is blue today"))
	b := d.Sum([]byte("the sky is blue today"))
	assert.Equal(t, a, b)

	c := d.Sum([]byte("the sky is blue tonight"))
	assert.NotEqual(t, a, c)
}

func TestFormatSum(t *testing.T) {
	d := NewSHA256()
	s := SumHex(d, []byte("x"))
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, s)
}

func TestEd25519SignAndVerify(t *testing.T) {
	signer, err := NewEd25519Signer("test-key")
	require.NoError(t, err)

	data := []byte("canonical action bytes")
	sig, err := signer.Sign(data)
	require.NoError(t, err)

	ok, err := Verify(signer.PublicKey(), sig, data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(signer.PublicKey(), sig, []byte("tampered"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEd25519SignerFromSeedDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	s1, err := NewEd25519SignerFromSeed(seed, "fixture")
	require.NoError(t, err)
	s2, err := NewEd25519SignerFromSeed(seed, "fixture")
	require.NoError(t, err)

	sig1, err := s1.Sign([]byte("payload"))
	require.NoError(t, err)
	sig2, err := s2.Sign([]byte("payload"))
	require.NoError(t, err)

	assert.Equal(t, sig1, sig2)
	assert.Equal(t, s1.PublicKey(), s2.PublicKey())
}

func TestEd25519SignerFromSeedRejectsBadLength(t *testing.T) {
	_, err := NewEd25519SignerFromSeed([]byte("short"), "fixture")
	assert.Error(t, err)
}

func TestVerifyRejectsMalformedInputs(t *testing.T) {
	_, err := Verify("not-hex", "00", []byte("x"))
	assert.Error(t, err)

	_, err = Verify("00ff", "not-hex", []byte("x"))
	assert.Error(t, err)

	_, err = Verify("00ff", "00ff", []byte("x"))
	assert.Error(t, err, "wrong key size must error")
}

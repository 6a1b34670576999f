package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitment_Deterministic(t *testing.T) {
	c1 := Compute(3, []byte("s1"))
	c2 := Compute(3, []byte("s1"))
	assert.Equal(t, c1, c2)
}

func TestCommitment_BindsAmountAndSalt(t *testing.T) {
	c := Compute(3, []byte("s1"))

	assert.True(t, Verify(c, 3, []byte("s1")))
	assert.False(t, Verify(c, 4, []byte("s1")))
	assert.False(t, Verify(c, 3, []byte("s2")))
	assert.False(t, Verify(c, 3, nil))
}

func TestCommitment_HexRoundTrip(t *testing.T) {
	c := Compute(42, []byte("secret"))

	decoded, err := NewCommitmentFromString(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestCommitment_InvalidEncoding(t *testing.T) {
	_, err := NewCommitmentFromString("not-hex")
	assert.Error(t, err)

	_, err = NewCommitmentFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCommitment_IsZero(t *testing.T) {
	var zero Commitment
	assert.True(t, zero.IsZero())
	assert.False(t, Compute(0, nil).IsZero())
}

package crypto

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/sha3"
)

// CommitmentSize is the byte length of a bid commitment digest.
const CommitmentSize = 32

// Commitment is a one-way digest binding a bid amount to a secret salt.
// It is published when the bid is placed and checked when the bid is revealed.
type Commitment [CommitmentSize]byte

// Compute returns the commitment for an amount and salt:
// SHA3-256(bigEndian64(amount) || salt).
func Compute(amount uint64, salt []byte) Commitment {
	h := sha3.New256()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], amount)
	h.Write(buf[:])
	h.Write(salt)

	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// Verify reports whether the amount and salt open the commitment.
// Comparison is constant-time.
func Verify(c Commitment, amount uint64, salt []byte) bool {
	expected := Compute(amount, salt)
	return subtle.ConstantTimeCompare(c[:], expected[:]) == 1
}

// NewCommitmentFromBytes creates a Commitment from a byte slice.
func NewCommitmentFromBytes(data []byte) (Commitment, error) {
	var c Commitment
	if len(data) != CommitmentSize {
		return c, errors.New("invalid commitment size")
	}
	copy(c[:], data)
	return c, nil
}

// NewCommitmentFromString creates a Commitment from a hex-encoded string.
func NewCommitmentFromString(data string) (Commitment, error) {
	rawBytes, err := hex.DecodeString(data)
	if err != nil {
		return Commitment{}, err
	}
	return NewCommitmentFromBytes(rawBytes)
}

// Bytes returns the commitment as a byte slice.
func (c Commitment) Bytes() []byte {
	return c[:]
}

// String returns a hex-encoded string representation of the commitment.
// This is useful for logging, wire encoding, and using as a map key.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// IsZero reports whether the commitment is the all-zero digest, which the
// engine treats as unset.
func (c Commitment) IsZero() bool {
	return c == Commitment{}
}

// MarshalJSON encodes the commitment as a hex string.
func (c Commitment) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a hex-encoded commitment.
func (c *Commitment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewCommitmentFromString(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

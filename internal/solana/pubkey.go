package solana

import (
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of a Solana public key in bytes.
const PublicKeyLength = 32

// PublicKey is a decoded 32-byte Solana address.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 address and checks its length.
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey

	s = strings.TrimSpace(s)
	if s == "" {
		return pk, fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}

	decoded, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(decoded) != PublicKeyLength {
		return pk, fmt.Errorf("%w: decoded %d bytes", ErrInvalidPublicKey, len(decoded))
	}

	copy(pk[:], decoded)
	return pk, nil
}

// ParseWalletKey decodes a key that must belong to a signer, so it has to be
// an ed25519 point. Program derived addresses and the all-zero system
// program address are rejected.
func ParseWalletKey(s string) (PublicKey, error) {
	pk, err := ParsePublicKey(s)
	if err != nil {
		return pk, err
	}
	if pk.IsZero() {
		return pk, fmt.Errorf("%w: system program address", ErrInvalidPublicKey)
	}
	if !pk.IsOnCurve() {
		return pk, ErrOffCurve
	}
	return pk, nil
}

// String returns the base58 form.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Short returns the abbreviated "ABCD...WXYZ" form.
func (pk PublicKey) Short() string {
	s := pk.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// IsZero reports whether the key is all zero bytes.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// IsOnCurve reports whether the key decodes to a point on the ed25519 curve.
func (pk PublicKey) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

package solana

import "errors"

var (
	// ErrInvalidPublicKey is returned when a string is not a 32-byte base58 key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrOffCurve is returned for keys that are not ed25519 points, such as PDAs.
	ErrOffCurve = errors.New("public key is not on the ed25519 curve")

	// ErrUnknownNetwork is returned for cluster names we cannot resolve.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrClientClosed is returned by subscription calls after Close.
	ErrClientClosed = errors.New("client closed")
)

package wallet

import "errors"

var (
	// ErrNotConnected is returned by operations that need a public key.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrBalanceUnavailable marks a connect whose balance lookup failed.
	// The key stays connected with a zero balance.
	ErrBalanceUnavailable = errors.New("balance unavailable")
)

package staking

import (
	"errors"
	"fmt"
)

// Validation and dispatch errors. Each maps to a fixed user-facing message.
var (
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInsufficientBalance = errors.New("amount exceeds wallet balance")
	ErrInsufficientStake   = errors.New("amount exceeds staked total")
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrBusy                = errors.New("another action is in progress")
)

// ErrActionFailed wraps anything that interrupts a simulated action.
var ErrActionFailed = errors.New("action failed")

// Message converts an action error into the text shown under the panel.
func Message(action Action, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		if action == ActionUnstake {
			return "Please enter a valid unstake amount."
		}
		return "Please enter a valid stake amount."
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient balance for staking."
	case errors.Is(err, ErrInsufficientStake):
		return "Insufficient staked amount."
	case errors.Is(err, ErrWalletNotConnected):
		return "Connect your wallet to start staking"
	case errors.Is(err, ErrBusy):
		return "Another action is still processing."
	}
	return fmt.Sprintf("Failed to %s. Please try again.", action)
}

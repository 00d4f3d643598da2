// Package addr validates Solana account addresses before they enter the
// pipeline. A valid wallet address is 32 bytes of base58 that decodes to a
// point on the ed25519 curve; program-derived addresses are deliberately
// off-curve and are rejected as wallet candidates.
package addr

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Decode decodes a base58 address into its 32-byte form.
func Decode(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("address is %d bytes, want 32", len(raw))
	}
	return raw, nil
}

// IsValid reports whether address is well-formed base58 of 32 bytes.
func IsValid(address string) bool {
	_, err := Decode(address)
	return err == nil
}

// IsOnCurve reports whether address decodes to a point on the ed25519
// curve. Wallet keypairs are on-curve; PDAs are not.
func IsOnCurve(address string) bool {
	raw, err := Decode(address)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// ValidateWallet checks that address can be a copy-trading source: valid
// base58, 32 bytes, on-curve.
func ValidateWallet(address string) error {
	raw, err := Decode(address)
	if err != nil {
		return err
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("address is off-curve: %w", err)
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Mint is a base58-encoded token mint address.
type Mint string

// Mint validation errors.
var (
	ErrInvalidMint = errors.New("invalid mint address")
)

// ParseMint validates and returns a mint address.
// A valid mint is 32 bytes of base58 that decodes to a point on the
// ed25519 curve (token mints are regular keypair addresses, not PDAs).
func ParseMint(s string) (Mint, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidMint, s, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: %s: expected 32 bytes, got %d", ErrInvalidMint, s, len(raw))
	}
	if !isOnCurve(raw) {
		return "", fmt.Errorf("%w: %s: not on ed25519 curve", ErrInvalidMint, s)
	}
	return Mint(s), nil
}

// String returns the base58 form.
func (m Mint) String() string {
	return string(m)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

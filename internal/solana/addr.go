package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// IsValidAddress reports whether s is a plausible Solana wallet address:
// base58, 32 bytes, and a valid ed25519 curve point.
func IsValidAddress(s string) bool {
	if s == "" {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	if len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}

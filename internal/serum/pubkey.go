package serum

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of an account address in bytes.
const PublicKeySize = 32

// PublicKey is an account address.
type PublicKey [PublicKeySize]byte

// WrappedSOLMint is the native SOL mint, whose decimals are fixed at 9.
var WrappedSOLMint = MustPublicKey("So11111111111111111111111111111111111111112")

// InvalidAddressError reports an address that is not a base58 32-byte key.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// ParsePublicKey decodes a base58 address.
func ParsePublicKey(s string) (PublicKey, error) {
	if s == "" {
		return PublicKey{}, &InvalidAddressError{Input: s, Reason: "empty"}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, &InvalidAddressError{Input: s, Reason: err.Error()}
	}
	if len(raw) != PublicKeySize {
		return PublicKey{}, &InvalidAddressError{
			Input:  s,
			Reason: fmt.Sprintf("decoded to %d bytes, want %d", len(raw), PublicKeySize),
		}
	}
	var pk PublicKey
	copy(pk[:], raw)
	return pk, nil
}

// MustPublicKey is ParsePublicKey for constants; it panics on error.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 form.
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// IsZero reports whether the key is all zeros.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func publicKeyAt(data []byte, off int) PublicKey {
	var pk PublicKey
	copy(pk[:], data[off:off+PublicKeySize])
	return pk
}

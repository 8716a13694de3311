package types

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/mr-tron/base58"
)

// Base58 alphabet used by Bitcoin.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Base58CheckSumSize is the length of the double-SHA-256 checksum suffix.
const Base58CheckSumSize = 4

var base58Valid [256]bool

func init() {
	for i := 0; i < len(base58Alphabet); i++ {
		base58Valid[base58Alphabet[i]] = true
	}
}

// Base58CheckEncode appends the 4-byte double-SHA-256 checksum to payload
// and encodes the result in base58.
func Base58CheckEncode(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: empty base58check payload", ErrEncoding)
	}
	buf := make([]byte, 0, len(payload)+Base58CheckSumSize)
	buf = append(buf, payload...)
	buf = append(buf, base58Checksum(payload)...)
	return base58.Encode(buf), nil
}

// Base58CheckDecode decodes a base58check string and verifies its checksum.
// The returned payload excludes the checksum.
func Base58CheckDecode(s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty base58check string", ErrEncoding)
	}
	for i := 0; i < len(s); i++ {
		if !base58Valid[s[i]] {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, s[i], i)
		}
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(raw) <= Base58CheckSumSize {
		return nil, fmt.Errorf("%w: decoded length %d too short", ErrEncoding, len(raw))
	}
	payload := raw[:len(raw)-Base58CheckSumSize]
	if !bytes.Equal(base58Checksum(payload), raw[len(raw)-Base58CheckSumSize:]) {
		return nil, fmt.Errorf("%w: base58check", ErrChecksumMismatch)
	}
	return payload, nil
}

// base58Checksum returns the first 4 bytes of SHA-256(SHA-256(b)).
func base58Checksum(b []byte) []byte {
	sum := crypto.DoubleSHA256(b)
	return sum[:Base58CheckSumSize]
}

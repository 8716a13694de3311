// Package crypto provides the hash functions and secp256k1 primitives used
// by the wallet engine.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is mandated by Bitcoin address formats.
)

// Hash160Size is the length of a RIPEMD160(SHA256(x)) digest.
const Hash160Size = 20

// WalletIDSize is the number of BLAKE3 bytes kept for a wallet identifier.
const WalletIDSize = 8

// DoubleSHA256 computes SHA256(SHA256(data)).
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Hash160 computes RIPEMD160(SHA256(data)), the hash behind P2PKH and
// P2WPKH addresses and BIP-32 fingerprints.
func Hash160(data []byte) [Hash160Size]byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	var out [Hash160Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HMACSHA512 computes HMAC-SHA512(key, data).
func HMACSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// WalletID derives a short non-secret identifier for a wallet from its
// master public key and chain code: hex(BLAKE3(pub || chainCode)[:8]).
func WalletID(pubKey, chainCode []byte) string {
	h := blake3.New()
	h.Write(pubKey)
	h.Write(chainCode)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:WalletIDSize])
}

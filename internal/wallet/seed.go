package wallet

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

const (
	seedIterations = 2048
	seedSaltPrefix = "mnemonic"
)

// MnemonicToSeed derives the 512-bit BIP-39 seed with PBKDF2-HMAC-SHA512.
// Both the sentence and the passphrase are NFKD-normalized. The mnemonic is
// not validated; use SeedFromMnemonic for user input.
func MnemonicToSeed(m Mnemonic, passphrase string) []byte {
	password := []byte(norm.NFKD.String(m.String()))
	salt := []byte(seedSaltPrefix + norm.NFKD.String(passphrase))
	seed := pbkdf2.Key(password, salt, seedIterations, SeedSize, sha512.New)
	zero(password)
	return seed
}

// SeedFromMnemonic derives a 512-bit seed from a mnemonic and optional passphrase
// using PBKDF2-SHA512 as specified in BIP-39.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	m := ParseMnemonic(mnemonic)
	if err := CheckMnemonic(m).Err(); err != nil {
		return nil, err
	}
	return MnemonicToSeed(m, passphrase), nil
}

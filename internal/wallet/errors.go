package wallet

import "errors"

// Derivation errors.
var (
	ErrInvalidSeedLength    = errors.New("invalid seed length")
	ErrInvalidEntropyLength = errors.New("invalid entropy length")
	ErrInvalidMnemonic      = errors.New("invalid mnemonic")
	ErrInvalidMasterKey     = errors.New("invalid master key")
	// ErrInvalidChildKey is returned for the rare index whose derived key
	// is unusable. The caller should move on to the next index.
	ErrInvalidChildKey    = errors.New("invalid child key")
	ErrHardenedFromPublic = errors.New("hardened derivation requires a private key")
	ErrMaxDepthExceeded   = errors.New("maximum derivation depth exceeded")
	ErrInvalidPath        = errors.New("invalid derivation path")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrInvalidExtendedKey = errors.New("invalid extended key")
	ErrPublicOnly         = errors.New("key has no private part")
	ErrInvalidWIF         = errors.New("invalid WIF")
)

// Storage errors.
var (
	ErrWalletExists     = errors.New("wallet already exists")
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrDuplicateWallet  = errors.New("wallet with the same master key already exists")
	ErrAddressNotFound  = errors.New("address not found")
	ErrUnsupportedFile  = errors.New("unsupported file version")
	ErrDecryptionFailed = errors.New("decryption failed")
)

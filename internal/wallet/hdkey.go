package wallet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Klingon-tech/hdwallet/pkg/crypto"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

const (
	// MinSeedSize and MaxSeedSize bound the master seed (128 to 512 bits).
	MinSeedSize = 16
	MaxSeedSize = 64

	// ChainCodeSize is the length of a BIP-32 chain code.
	ChainCodeSize = 32

	// MaxDepth is the deepest level a serialized key can record.
	MaxDepth = 255

	// FingerprintSize is the length of a key fingerprint.
	FingerprintSize = 4
)

var masterKeySalt = []byte("Bitcoin seed")

// ExtendedKey is a BIP-32 extended key: a private scalar or compressed
// public point plus the chain code and position metadata. Values are
// immutable; derivation returns new keys and accessors return copies.
type ExtendedKey struct {
	key        []byte // 32-byte scalar when private, otherwise nil
	pubKey     []byte // 33-byte compressed point, always set
	chainCode  []byte
	depth      uint8
	parentFP   [FingerprintSize]byte
	childIndex uint32
	net        types.Network
}

// NewMasterKey derives the master key from a 16 to 64 byte seed.
func NewMasterKey(seed []byte, net types.Network) (*ExtendedKey, error) {
	if len(seed) < MinSeedSize || len(seed) > MaxSeedSize {
		return nil, fmt.Errorf("%w: seed must be %d to %d bytes, got %d",
			ErrInvalidSeedLength, MinSeedSize, MaxSeedSize, len(seed))
	}
	if !net.Valid() {
		return nil, fmt.Errorf("unknown network %q", net)
	}
	return masterFromHMAC(crypto.HMACSHA512(masterKeySalt, seed), net)
}

// masterFromHMAC splits I = IL || IR into the master scalar and chain code.
func masterFromHMAC(i []byte, net types.Network) (*ExtendedKey, error) {
	il, ir := i[:32], i[32:]
	pub, err := crypto.PublicKeyFromPrivate(il)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMasterKey, err)
	}
	return &ExtendedKey{
		key:       bytes.Clone(il),
		pubKey:    pub,
		chainCode: bytes.Clone(ir),
		net:       net,
	}, nil
}

// DeriveChild derives the child at index. The child is hardened when
// hardened is set (index is offset by 2^31 if below it) or when index is
// already 2^31 or above.
//
// ErrInvalidChildKey marks an index with no valid key; callers skip to the
// next index themselves.
func (k *ExtendedKey) DeriveChild(index uint32, hardened bool) (*ExtendedKey, error) {
	if hardened && index < HardenedKeyStart {
		index += HardenedKeyStart
	}
	if k.depth == MaxDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrMaxDepthExceeded, MaxDepth)
	}

	isHardened := index >= HardenedKeyStart
	var data []byte
	if isHardened {
		if !k.IsPrivate() {
			return nil, fmt.Errorf("%w: index %s", ErrHardenedFromPublic, formatIndex(index))
		}
		data = make([]byte, 0, 1+crypto.PrivateKeySize+4)
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = make([]byte, 0, crypto.CompressedPublicKeySize+4)
		data = append(data, k.pubKey...)
	}
	data = binary.BigEndian.AppendUint32(data, index)
	defer zero(data)

	i := crypto.HMACSHA512(k.chainCode, data)
	defer zero(i)
	return k.childFromHMAC(index, i[:32], i[32:])
}

// childFromHMAC combines the parent key with IL and takes IR as the child
// chain code.
func (k *ExtendedKey) childFromHMAC(index uint32, il, ir []byte) (*ExtendedKey, error) {
	child := &ExtendedKey{
		chainCode:  bytes.Clone(ir),
		depth:      k.depth + 1,
		parentFP:   k.Fingerprint(),
		childIndex: index,
		net:        k.net,
	}

	if k.IsPrivate() {
		scalar, err := crypto.TweakAddPrivate(k.key, il)
		if err != nil {
			return nil, invalidChild(index, err)
		}
		pub, err := crypto.PublicKeyFromPrivate(scalar)
		if err != nil {
			return nil, invalidChild(index, err)
		}
		child.key = scalar
		child.pubKey = pub
		return child, nil
	}

	pub, err := crypto.TweakAddPublic(k.pubKey, il)
	if err != nil {
		return nil, invalidChild(index, err)
	}
	child.pubKey = pub
	return child, nil
}

func invalidChild(index uint32, err error) error {
	if errors.Is(err, crypto.ErrScalarOutOfRange) || errors.Is(err, crypto.ErrPointAtInfinity) {
		return fmt.Errorf("%w: index %s: %w", ErrInvalidChildKey, formatIndex(index), err)
	}
	return fmt.Errorf("derive child %s: %w", formatIndex(index), err)
}

// Child derives the child at a raw 32-bit index (hardened when >= 2^31).
func (k *ExtendedKey) Child(index uint32) (*ExtendedKey, error) {
	return k.DeriveChild(index, false)
}

// DerivePath derives a key along path, relative to k.
func (k *ExtendedKey) DerivePath(path DerivationPath) (*ExtendedKey, error) {
	current := k
	for i, c := range path {
		child, err := current.DeriveChild(c.Index, c.Hardened)
		if err != nil {
			return nil, fmt.Errorf("derive %s (step %d): %w", path[:i+1], i+1, err)
		}
		current = child
	}
	return current, nil
}

// Neuter returns a public-key-only copy (for watch-only wallets).
func (k *ExtendedKey) Neuter() *ExtendedKey {
	return &ExtendedKey{
		pubKey:     k.pubKey,
		chainCode:  k.chainCode,
		depth:      k.depth,
		parentFP:   k.parentFP,
		childIndex: k.childIndex,
		net:        k.net,
	}
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *ExtendedKey) PrivateKeyBytes() []byte {
	if !k.IsPrivate() {
		return nil
	}
	return bytes.Clone(k.key)
}

// PrivateKey returns the private scalar as a crypto.PrivateKey.
func (k *ExtendedKey) PrivateKey() (*crypto.PrivateKey, error) {
	if !k.IsPrivate() {
		return nil, ErrPublicOnly
	}
	return crypto.PrivateKeyFromBytes(k.key)
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *ExtendedKey) PublicKeyBytes() []byte {
	return bytes.Clone(k.pubKey)
}

// ChainCode returns the 32-byte chain code.
func (k *ExtendedKey) ChainCode() []byte {
	return bytes.Clone(k.chainCode)
}

// IsPrivate returns true if this key contains a private key.
func (k *ExtendedKey) IsPrivate() bool {
	return k.key != nil
}

// Depth returns the derivation depth (0 for master).
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ChildIndex returns the raw index this key was derived at (0 for master).
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.childIndex
}

// ParentFingerprint returns the parent's fingerprint (zero for master).
func (k *ExtendedKey) ParentFingerprint() [FingerprintSize]byte {
	return k.parentFP
}

// Fingerprint returns the first 4 bytes of Hash160 of the public key.
func (k *ExtendedKey) Fingerprint() [FingerprintSize]byte {
	h := crypto.Hash160(k.pubKey)
	var fp [FingerprintSize]byte
	copy(fp[:], h[:FingerprintSize])
	return fp
}

// Network returns the network the key serializes for.
func (k *ExtendedKey) Network() types.Network {
	return k.net
}

// WithNetwork returns a copy of k tagged with another network. Key material
// is unchanged; only serialization and default addresses differ.
func (k *ExtendedKey) WithNetwork(net types.Network) *ExtendedKey {
	c := *k
	c.net = net
	return &c
}

// ID returns the non-secret wallet identifier for this key.
func (k *ExtendedKey) ID() string {
	return crypto.WalletID(k.pubKey, k.chainCode)
}

func formatIndex(index uint32) string {
	if index >= HardenedKeyStart {
		return fmt.Sprintf("%d'", index-HardenedKeyStart)
	}
	return fmt.Sprintf("%d", index)
}

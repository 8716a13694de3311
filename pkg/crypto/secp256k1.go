package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Key sizes.
const (
	PrivateKeySize          = 32
	CompressedPublicKeySize = 33
)

// EC primitive errors.
var (
	ErrScalarOutOfRange = errors.New("scalar is zero or not below the curve order")
	ErrPointAtInfinity  = errors.New("point at infinity")
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// PrivateKey wraps a secp256k1 private scalar in [1, n-1].
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte big-endian scalar.
// Scalars of zero or at or above the curve order are rejected rather than reduced.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	s, err := parseScalar(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(s)}, nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// PublicKeyFromPrivate multiplies the generator by the 32-byte scalar and
// returns the compressed point.
func PublicKeyFromPrivate(priv []byte) ([]byte, error) {
	s, err := parseScalar(priv)
	if err != nil {
		return nil, err
	}
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(s, &p)
	p.ToAffine()
	pub := secp256k1.NewPublicKey(&p.X, &p.Y).SerializeCompressed()
	s.Zero()
	return pub, nil
}

// ValidPrivateKey reports whether b is a 32-byte scalar in [1, n-1].
func ValidPrivateKey(b []byte) bool {
	s, err := parseScalar(b)
	if err != nil {
		return false
	}
	s.Zero()
	return true
}

// ParsePublicKey checks that b is a valid compressed point on the curve and
// returns its canonical compressed serialization.
func ParsePublicKey(b []byte) ([]byte, error) {
	if len(b) != CompressedPublicKeySize || (b[0] != 0x02 && b[0] != 0x03) {
		return nil, fmt.Errorf("%w: want %d-byte compressed point", ErrInvalidPublicKey, CompressedPublicKeySize)
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub.SerializeCompressed(), nil
}

// TweakAddPrivate returns (tweak + priv) mod n. A tweak at or above n, or a
// zero result, is rejected with ErrScalarOutOfRange.
func TweakAddPrivate(priv, tweak []byte) ([]byte, error) {
	k, err := parseScalar(priv)
	if err != nil {
		return nil, err
	}
	defer k.Zero()
	t, err := parseTweak(tweak)
	if err != nil {
		return nil, err
	}
	k.Add(t)
	if k.IsZero() {
		return nil, fmt.Errorf("%w: tweaked scalar is zero", ErrScalarOutOfRange)
	}
	out := k.Bytes()
	return out[:], nil
}

// TweakAddPublic returns tweak*G + pub as a compressed point. A tweak at or
// above n fails with ErrScalarOutOfRange; a result at infinity fails with
// ErrPointAtInfinity.
func TweakAddPublic(pub, tweak []byte) ([]byte, error) {
	if len(pub) != CompressedPublicKeySize {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidPublicKey, len(pub))
	}
	parent, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	t, err := parseTweak(tweak)
	if err != nil {
		return nil, err
	}

	var tweakPoint, parentPoint, result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(t, &tweakPoint)
	parent.AsJacobian(&parentPoint)
	secp256k1.AddNonConst(&tweakPoint, &parentPoint, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, ErrPointAtInfinity
	}
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed(), nil
}

// parseScalar decodes a private scalar, rejecting 0 and values >= n.
func parseScalar(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		s.Zero()
		return nil, fmt.Errorf("%w: private key >= n", ErrScalarOutOfRange)
	}
	if s.IsZero() {
		return nil, fmt.Errorf("%w: private key is zero", ErrScalarOutOfRange)
	}
	return &s, nil
}

// parseTweak decodes a tweak, which may be zero but must be below n.
func parseTweak(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("tweak must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow {
		return nil, fmt.Errorf("%w: tweak >= n", ErrScalarOutOfRange)
	}
	return &s, nil
}

package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Klingon-tech/hdwallet/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// HardenedKeyStart is the first hardened child index (2^31).
const HardenedKeyStart = bip32.FirstHardenedChild

// BIP-44 derivation path constants.
// Full path: m/purpose'/coin_type'/account'/change/index
const (
	// PurposeBIP44 is the purpose for legacy P2PKH accounts.
	PurposeBIP44 uint32 = 44

	// PurposeBIP84 is the purpose for native segwit P2WPKH accounts.
	PurposeBIP84 uint32 = 84

	// ChangeExternal is for receiving addresses.
	ChangeExternal uint32 = 0

	// ChangeInternal is for change addresses.
	ChangeInternal uint32 = 1
)

// PathComponent is one step of a derivation path. Index is always below
// HardenedKeyStart; the offset is applied when Hardened is set.
type PathComponent struct {
	Index    uint32
	Hardened bool
}

// Hardened returns a hardened component for index.
func Hardened(index uint32) PathComponent {
	return PathComponent{Index: index, Hardened: true}
}

// Normal returns a non-hardened component for index.
func Normal(index uint32) PathComponent {
	return PathComponent{Index: index}
}

// Value returns the raw 32-bit child number.
func (c PathComponent) Value() uint32 {
	if c.Hardened {
		return c.Index + HardenedKeyStart
	}
	return c.Index
}

func (c PathComponent) String() string {
	if c.Hardened {
		return strconv.FormatUint(uint64(c.Index), 10) + "'"
	}
	return strconv.FormatUint(uint64(c.Index), 10)
}

// DerivationPath is a sequence of child steps from the master key.
type DerivationPath []PathComponent

// String renders the path as "m/84'/0'/0'/0/0".
func (p DerivationPath) String() string {
	var sb strings.Builder
	sb.WriteByte('m')
	for _, c := range p {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Child returns a new path extended by c. p is not modified.
func (p DerivationPath) Child(c PathComponent) DerivationPath {
	out := make(DerivationPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, c)
}

// ParsePath parses "m/44'/0'/0'/0/5". Hardened steps may be marked with
// ', h or H. A bare "m" is the empty path.
func ParsePath(s string) (DerivationPath, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if parts[0] != "m" && parts[0] != "M" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, s)
	}

	path := make(DerivationPath, 0, len(parts)-1)
	for i, part := range parts[1:] {
		c := PathComponent{}
		if n := len(part); n > 0 && (part[n-1] == '\'' || part[n-1] == 'h' || part[n-1] == 'H') {
			c.Hardened = true
			part = part[:n-1]
		}
		if part == "" || part[0] == '+' || part[0] == '-' {
			return nil, fmt.Errorf("%w: bad component %d in %q", ErrInvalidPath, i+1, s)
		}
		idx, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d in %q: index must be below 2^31", ErrInvalidPath, i+1, s)
		}
		c.Index = uint32(idx)
		path = append(path, c)
	}
	return path, nil
}

// MustParsePath is ParsePath for constant paths. It panics on error.
func MustParsePath(s string) DerivationPath {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PurposeFor returns the BIP-44 family purpose used for an address type.
func PurposeFor(t types.AddressType) uint32 {
	if t == types.P2PKH {
		return PurposeBIP44
	}
	return PurposeBIP84
}

// AccountPath returns m/purpose'/coin_type'/account'.
func AccountPath(purpose uint32, net types.Network, account uint32) DerivationPath {
	return DerivationPath{
		Hardened(purpose),
		Hardened(net.Params().CoinType),
		Hardened(account),
	}
}

// AddressPath returns m/purpose'/coin_type'/account'/change/index.
func AddressPath(purpose uint32, net types.Network, account, change, index uint32) DerivationPath {
	return AccountPath(purpose, net, account).Child(Normal(change)).Child(Normal(index))
}

package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex.DecodeString(%q): %v", s, err)
	}
	return b
}

func TestSegwitEncode_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		hrp     string
		version byte
		program string
		want    string
	}{
		{"v0 p2wpkh", "bc", 0, "751e76e8199196d454941c45d1b3a323f1433bd6",
			"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
		{"v0 p2wsh testnet", "tb", 0, "1863143c14c5166804bd19203356da136c985678cd4d27a1b8c6329604903262",
			"tb1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3q0sl5k7"},
		{"v1 40 bytes", "bc", 1, "751e76e8199196d454941c45d1b3a323f1433bd6751e76e8199196d454941c45d1b3a323f1433bd6",
			"bc1pw508d6qejxtdg4y5r3zarvary0c5xw7kw508d6qejxtdg4y5r3zarvary0c5xw7kt5nd6y"},
		{"v16 2 bytes", "bc", 16, "751e", "bc1sw50qgdz25j"},
		{"v2 16 bytes", "bc", 2, "751e76e8199196d454941c45d1b3a323",
			"bc1zw508d6qejxtdg4y5r3zarvaryvaxxpcs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := mustHex(t, tt.program)
			got, err := SegwitEncode(tt.hrp, tt.version, program)
			if err != nil {
				t.Fatalf("SegwitEncode() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SegwitEncode() = %q, want %q", got, tt.want)
			}

			hrp, version, decoded, err := SegwitDecode(got)
			if err != nil {
				t.Fatalf("SegwitDecode() error: %v", err)
			}
			if hrp != tt.hrp || version != tt.version || !bytes.Equal(decoded, program) {
				t.Errorf("SegwitDecode() = (%q, %d, %x), want (%q, %d, %x)",
					hrp, version, decoded, tt.hrp, tt.version, program)
			}
		})
	}
}

func TestSegwitDecode_Uppercase(t *testing.T) {
	hrp, version, program, err := SegwitDecode("BC1QW508D6QEJXTDG4Y5R3ZARVARY0C5XW7KV8F3T4")
	if err != nil {
		t.Fatalf("SegwitDecode() error: %v", err)
	}
	if hrp != "bc" || version != 0 {
		t.Errorf("got hrp=%q version=%d", hrp, version)
	}
	if hex.EncodeToString(program) != "751e76e8199196d454941c45d1b3a323f1433bd6" {
		t.Errorf("program = %x", program)
	}
}

func TestSegwitDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want error
	}{
		{"bad checksum", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t5", ErrChecksumMismatch},
		{"bech32 checksum on v1", "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqh2y7hd", ErrChecksumMismatch},
		{"bech32m checksum on v0", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kemeawh", ErrChecksumMismatch},
		{"mixed case", "tb1qrp33g0q5c5txsp9arysrx4k6zdkfs4nce4xj0gdcccefvpysxf3q0sL5k7", ErrEncoding},
		{"invalid data char", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3tb", ErrInvalidCharacter},
		{"no separator", "bcqw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", ErrEncoding},
		{"empty", "", ErrEncoding},
		{"too long", "bc1" + strings.Repeat("q", 90), ErrEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := SegwitDecode(tt.addr)
			if !errors.Is(err, tt.want) {
				t.Errorf("SegwitDecode(%q) error = %v, want %v", tt.addr, err, tt.want)
			}
		})
	}
}

func TestSegwitDecode_SingleCharCorruption(t *testing.T) {
	addr := "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	sep := strings.LastIndexByte(addr, '1')

	for i := sep + 1; i < len(addr); i++ {
		// Replace with the next charset symbol so the string stays well-formed.
		cur := strings.IndexByte(bech32Charset, addr[i])
		repl := bech32Charset[(cur+1)%len(bech32Charset)]
		corrupted := addr[:i] + string(repl) + addr[i+1:]

		if _, _, _, err := SegwitDecode(corrupted); !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("position %d: SegwitDecode(%q) error = %v, want ErrChecksumMismatch", i, corrupted, err)
		}
	}
}

func TestSegwitEncode_InvalidProgram(t *testing.T) {
	tests := []struct {
		name    string
		version byte
		size    int
	}{
		{"v0 21 bytes", 0, 21},
		{"v0 2 bytes", 0, 2},
		{"v1 1 byte", 1, 1},
		{"v1 41 bytes", 1, 41},
		{"v17", 17, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SegwitEncode("bc", tt.version, make([]byte, tt.size))
			if !errors.Is(err, ErrInvalidWitnessProgram) {
				t.Errorf("SegwitEncode() error = %v, want ErrInvalidWitnessProgram", err)
			}
		})
	}
}

func TestBech32_RoundtripVariants(t *testing.T) {
	data := []byte{0, 14, 20, 15, 7, 13, 26, 0, 25, 18, 6, 11, 13, 8, 21, 4, 20, 3, 17, 2, 29, 3}

	for _, variant := range []Bech32Variant{Bech32, Bech32m} {
		t.Run(variant.String(), func(t *testing.T) {
			encoded, err := Bech32Encode("tb", data, variant)
			if err != nil {
				t.Fatalf("Bech32Encode() error: %v", err)
			}
			hrp, decoded, gotVariant, err := Bech32Decode(encoded)
			if err != nil {
				t.Fatalf("Bech32Decode() error: %v", err)
			}
			if hrp != "tb" {
				t.Errorf("hrp = %q, want tb", hrp)
			}
			if gotVariant != variant {
				t.Errorf("variant = %v, want %v", gotVariant, variant)
			}
			if !bytes.Equal(decoded, data) {
				t.Errorf("decoded = %v, want %v", decoded, data)
			}
		})
	}
}

func TestBech32Encode_Invalid(t *testing.T) {
	if _, err := Bech32Encode("", []byte{1}, Bech32); !errors.Is(err, ErrEncoding) {
		t.Errorf("empty hrp error = %v, want ErrEncoding", err)
	}
	if _, err := Bech32Encode("Bc", []byte{1}, Bech32); !errors.Is(err, ErrEncoding) {
		t.Errorf("mixed-case hrp error = %v, want ErrEncoding", err)
	}
	if _, err := Bech32Encode("bc", []byte{32}, Bech32); !errors.Is(err, ErrEncoding) {
		t.Errorf("non 5-bit data error = %v, want ErrEncoding", err)
	}
	if _, err := Bech32Encode("bc", make([]byte, 82), Bech32); !errors.Is(err, ErrEncoding) {
		t.Errorf("over-long error = %v, want ErrEncoding", err)
	}
}

func TestConvertBits(t *testing.T) {
	in := mustHex(t, "751e76e8199196d454941c45d1b3a323f1433bd6")
	five, err := ConvertBits(in, 8, 5, true)
	if err != nil {
		t.Fatalf("ConvertBits(8->5) error: %v", err)
	}
	if len(five) != 32 {
		t.Fatalf("len = %d, want 32", len(five))
	}
	back, err := ConvertBits(five, 5, 8, false)
	if err != nil {
		t.Fatalf("ConvertBits(5->8) error: %v", err)
	}
	if !bytes.Equal(back, in) {
		t.Errorf("round trip = %x, want %x", back, in)
	}

	// A trailing group carrying non-zero padding bits is rejected.
	if _, err := ConvertBits([]byte{31}, 5, 8, false); !errors.Is(err, ErrEncoding) {
		t.Errorf("non-zero padding error = %v, want ErrEncoding", err)
	}
}

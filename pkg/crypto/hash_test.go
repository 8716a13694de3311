package crypto

import (
	"encoding/hex"
	"testing"
)

func TestDoubleSHA256(t *testing.T) {
	got := DoubleSHA256(nil)
	want := "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"
	if hex.EncodeToString(got[:]) != want {
		t.Errorf("DoubleSHA256(\"\") = %x, want %s", got, want)
	}
}

func TestHash160(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb",
		},
		{
			name:  "generator point",
			input: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
			want:  "751e76e8199196d454941c45d1b3a323f1433bd6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := hex.DecodeString(tt.input)
			if err != nil {
				t.Fatalf("bad hex: %v", err)
			}
			got := Hash160(in)
			if hex.EncodeToString(got[:]) != tt.want {
				t.Errorf("Hash160(%s) = %x, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHMACSHA512(t *testing.T) {
	got := HMACSHA512([]byte("key"), []byte("The quick brown fox jumps over the lazy dog"))
	want := "b42af09057bac1e2d41708e48a902e09b5ff7f12ab428a4fe86653c73dd248fb" +
		"82f948a549f7b791a5b41915ee4d1ec3935357e4e2317250d0372afa2ebeeb3a"
	if hex.EncodeToString(got) != want {
		t.Errorf("HMACSHA512() = %x, want %s", got, want)
	}
}

func TestWalletID(t *testing.T) {
	pub := make([]byte, 33)
	pub[0] = 0x02
	chain := make([]byte, 32)

	id := WalletID(pub, chain)
	if len(id) != WalletIDSize*2 {
		t.Fatalf("WalletID length = %d, want %d", len(id), WalletIDSize*2)
	}
	if id != WalletID(pub, chain) {
		t.Error("WalletID should be deterministic")
	}

	chain[31] = 1
	if id == WalletID(pub, chain) {
		t.Error("different chain codes should give different IDs")
	}
}

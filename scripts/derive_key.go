// derive_key.go prints the pubkey and addresses for a WIF private key file.
// A JSON export file written by hdwallet-cli is accepted too.
// Usage: go run scripts/derive_key.go <keyfile>
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/hdwallet/internal/wallet"
	"github.com/Klingon-tech/hdwallet/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	keyStr := strings.TrimSpace(string(data))
	if strings.HasPrefix(keyStr, "{") {
		rec, err := wallet.ReadExport(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		keyStr = rec.PrivateKeyWIF
	}
	key, err := wallet.DecodeWIF(keyStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pub, err := key.PublicKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("network=%s\n", key.Network)
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	for _, t := range []types.AddressType{types.P2PKH, types.P2WPKH} {
		addr, err := wallet.PublicKeyAddress(t, pub, key.Network)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s=%s\n", t, addr)
	}
}

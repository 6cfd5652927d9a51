// derive_address.go prints the P2PK address for a hex-encoded public key, or
// for the public key of a hex-encoded private key file.
// Usage: go run scripts/derive_address.go [--testnet] <pubkey-hex|keyfile>
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-mint/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func main() {
	args := os.Args[1:]
	network := types.Mainnet
	if len(args) > 0 && args[0] == "--testnet" {
		network = types.Testnet
		args = args[1:]
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: derive_address [--testnet] <pubkey-hex|keyfile>")
		os.Exit(1)
	}

	input := args[0]
	if data, err := os.ReadFile(input); err == nil {
		keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if len(keyBytes) != secp256k1.PrivKeyBytesLen {
			fmt.Fprintf(os.Stderr, "private key must be %d bytes\n", secp256k1.PrivKeyBytesLen)
			os.Exit(1)
		}
		input = hex.EncodeToString(secp256k1.PrivKeyFromBytes(keyBytes).PubKey().SerializeCompressed())
	}

	pub, err := hex.DecodeString(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	addr, err := types.NewP2PKAddress(network, pub)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	fmt.Printf("address=%s\n", addr.String())
}

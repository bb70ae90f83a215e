// Command signvoucher signs a mint voucher with the authorizer key.
//
// Usage:
//
//	go run ./cmd/signvoucher/ --key <hex> --chain-id 16602 \
//	  --contract 0x... --recipient 0x... --nonce 0
//
// Prints the voucher as JSON, ready for POST /api/mint/voucher. With
// --verify it also recovers the signer and checks it against the key.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0gfoundation/0g-genesis-mint/internal/voucher"
)

type output struct {
	Recipient string `json:"recipient"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
}

func main() {
	keyHex := flag.String("key", os.Getenv("VOUCHER_SIGNER_KEY"), "authorizer private key (hex, or $VOUCHER_SIGNER_KEY)")
	chainID := flag.Int64("chain-id", 16602, "chain ID")
	contract := flag.String("contract", "", "mint contract address (required)")
	recipient := flag.String("recipient", "", "voucher recipient address (required)")
	nonceStr := flag.String("nonce", "0", "voucher nonce (decimal)")
	verify := flag.Bool("verify", false, "recover the signer after signing")
	flag.Parse()

	if err := run(*keyHex, *chainID, *contract, *recipient, *nonceStr, *verify); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(keyHex string, chainID int64, contract, recipient, nonceStr string, verify bool) error {
	if keyHex == "" {
		return fmt.Errorf("--key is required")
	}
	if !common.IsHexAddress(contract) {
		return fmt.Errorf("--contract must be a hex address")
	}
	if !common.IsHexAddress(recipient) {
		return fmt.Errorf("--recipient must be a hex address")
	}
	nonce, ok := new(big.Int).SetString(nonceStr, 10)
	if !ok {
		return fmt.Errorf("--nonce must be a decimal integer")
	}

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}
	signer := crypto.PubkeyToAddress(privKey.PublicKey)
	domain := voucher.NewDomain(big.NewInt(chainID), common.HexToAddress(contract))

	v := &voucher.MintVoucher{Recipient: common.HexToAddress(recipient), Nonce: nonce}
	if err := voucher.Sign(v, privKey, domain); err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	if verify {
		got, err := voucher.Recover(v, domain)
		if err != nil {
			return fmt.Errorf("recover: %w", err)
		}
		if got != signer {
			return fmt.Errorf("recovered %s, want %s", got.Hex(), signer.Hex())
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output{
		Recipient: v.Recipient.Hex(),
		Nonce:     v.Nonce.String(),
		Signature: "0x" + hex.EncodeToString(v.Signature),
		Signer:    signer.Hex(),
	})
}

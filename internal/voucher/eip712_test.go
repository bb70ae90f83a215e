package voucher

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	testChainID      = big.NewInt(12345)
	testContractAddr = common.HexToAddress("0xDeAdBeEfDeAdBeEfDeAdBeEfDeAdBeEfDeAdBeEf")
	testRecipient    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testDomain       = NewDomain(testChainID, testContractAddr)
)

func signedVoucher(t *testing.T, nonce int64) (*MintVoucher, common.Address) {
	t.Helper()
	privKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	v := &MintVoucher{Recipient: testRecipient, Nonce: big.NewInt(nonce)}
	if err := Sign(v, privKey, testDomain); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return v, crypto.PubkeyToAddress(privKey.PublicKey)
}

// ── Sign + Recover ─────────────────────────────────────────────────────────

func TestSign_SignatureLength(t *testing.T) {
	v, _ := signedVoucher(t, 0)
	if len(v.Signature) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(v.Signature))
	}
	if v.Signature[64] != 27 && v.Signature[64] != 28 {
		t.Fatalf("V should be 27/28, got %d", v.Signature[64])
	}
}

func TestSign_RecoverAddress(t *testing.T) {
	v, expected := signedVoucher(t, 42)
	recovered, err := Recover(v, testDomain)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if recovered != expected {
		t.Errorf("recovered %s, want %s", recovered.Hex(), expected.Hex())
	}
}

// A signature for chainID=12345 must not recover the signer on chainID=1.
func TestSign_DifferentChainID(t *testing.T) {
	v, expected := signedVoucher(t, 1)
	recovered, err := Recover(v, NewDomain(big.NewInt(1), testContractAddr))
	if err == nil && recovered == expected {
		t.Error("signature should NOT verify on a different chainID")
	}
}

func TestSign_DifferentContract(t *testing.T) {
	v, expected := signedVoucher(t, 1)
	other := common.HexToAddress("0x0000000000000000000000000000000000000001")
	recovered, err := Recover(v, NewDomain(testChainID, other))
	if err == nil && recovered == expected {
		t.Error("signature should NOT verify against a different contract address")
	}
}

func TestSign_TamperedRecipient(t *testing.T) {
	v, expected := signedVoucher(t, 1)
	v.Recipient = common.HexToAddress("0x3333333333333333333333333333333333333333")
	recovered, err := Recover(v, testDomain)
	if err == nil && recovered == expected {
		t.Error("changing the recipient should invalidate the signature")
	}
}

func TestSign_NonceChangesSignature(t *testing.T) {
	privKey, _ := crypto.GenerateKey()
	v1 := &MintVoucher{Recipient: testRecipient, Nonce: big.NewInt(1)}
	v2 := &MintVoucher{Recipient: testRecipient, Nonce: big.NewInt(2)}
	if err := Sign(v1, privKey, testDomain); err != nil {
		t.Fatal(err)
	}
	if err := Sign(v2, privKey, testDomain); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(v1.Signature, v2.Signature) {
		t.Error("different nonces should produce different signatures")
	}
}

func TestDigest_RejectsBadNonce(t *testing.T) {
	for _, n := range []*big.Int{nil, big.NewInt(-1), new(big.Int).Lsh(big.NewInt(1), 256)} {
		if _, err := Digest(&MintVoucher{Recipient: testRecipient, Nonce: n}, testDomain); err != ErrMalformedVoucher {
			t.Errorf("nonce %v: got %v want ErrMalformedVoucher", n, err)
		}
	}
}

// ── Separator ────────────────────────────────────────────────────────────────

func TestSeparator_Stable(t *testing.T) {
	if testDomain.Separator() != NewDomain(testChainID, testContractAddr).Separator() {
		t.Fatal("Separator is not stable")
	}
}

func TestSeparator_ChainIDDiff(t *testing.T) {
	if NewDomain(big.NewInt(1), testContractAddr).Separator() == NewDomain(big.NewInt(2), testContractAddr).Separator() {
		t.Fatal("different chainIDs should produce different separators")
	}
}

// TestDigest_MatchesTypedDataEncoder checks the hand-rolled encoding against
// go-ethereum's generic EIP-712 implementation.
func TestDigest_MatchesTypedDataEncoder(t *testing.T) {
	nonce := big.NewInt(7)
	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"MintVoucher": {
				{Name: "recipient", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "MintVoucher",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(testChainID.Int64()),
			VerifyingContract: testContractAddr.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"recipient": testRecipient.Hex(),
			"nonce":     nonce,
		},
	}
	want, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		t.Fatalf("TypedDataAndHash: %v", err)
	}
	got, err := Digest(&MintVoucher{Recipient: testRecipient, Nonce: nonce}, testDomain)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:], want) {
		t.Fatalf("digest mismatch:\n got %x\nwant %x", got, want)
	}
}

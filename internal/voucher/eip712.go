package voucher

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	voucherTypeHash = crypto.Keccak256Hash([]byte("MintVoucher(address recipient,uint256 nonce)"))
	domainTypeHash  = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))
)

// Separator computes the EIP-712 domain separator.
func (d Domain) Separator() [32]byte {
	nameHash := crypto.Keccak256Hash([]byte(d.Name))
	versionHash := crypto.Keccak256Hash([]byte(d.Version))

	// abi.encode(bytes32, bytes32, bytes32, uint256, address)
	encoded := make([]byte, 5*32)
	copy(encoded[0:32], domainTypeHash[:])
	copy(encoded[32:64], nameHash[:])
	copy(encoded[64:96], versionHash[:])
	d.ChainID.FillBytes(encoded[96:128])
	copy(encoded[140:160], d.VerifyingContract.Bytes())

	return crypto.Keccak256Hash(encoded)
}

// structHash = keccak256(typeHash || abi.encode(recipient, nonce))
func structHash(recipient common.Address, nonce []byte) [32]byte {
	encoded := make([]byte, 3*32)
	copy(encoded[0:32], voucherTypeHash[:])
	copy(encoded[44:64], recipient.Bytes())
	copy(encoded[96-len(nonce):96], nonce)
	return crypto.Keccak256Hash(encoded)
}

// digest builds keccak256(0x1901 || separator || structHash).
func digest(sep [32]byte, recipient common.Address, nonce []byte) [32]byte {
	sh := structHash(recipient, nonce)
	msg := make([]byte, 2+32+32)
	msg[0] = 0x19
	msg[1] = 0x01
	copy(msg[2:34], sep[:])
	copy(msg[34:66], sh[:])
	return crypto.Keccak256Hash(msg)
}

// Digest returns the typed-data hash a signer signs for v under d.
func Digest(v *MintVoucher, d Domain) ([32]byte, error) {
	if !validNonce(v.Nonce) {
		return [32]byte{}, ErrMalformedVoucher
	}
	return digest(d.Separator(), v.Recipient, v.Nonce.Bytes()), nil
}

// Sign signs the voucher in-place, leaving V as 27/28.
func Sign(v *MintVoucher, privKey *ecdsa.PrivateKey, d Domain) error {
	h, err := Digest(v, d)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(h[:], privKey)
	if err != nil {
		return err
	}
	sig[64] += 27
	v.Signature = sig
	return nil
}

// recoverSigner extracts the signer address for a prepared digest.
func recoverSigner(h [32]byte, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature length %d", len(signature))
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(h[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Recover returns the address that signed v under d.
func Recover(v *MintVoucher, d Domain) (common.Address, error) {
	h, err := Digest(v, d)
	if err != nil {
		return common.Address{}, err
	}
	return recoverSigner(h, v.Signature)
}

package voucher

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MintVoucher authorizes one mint to Recipient. Only (Recipient, Nonce) are
// signed; the pair is what gets recorded as consumed after redemption.
type MintVoucher struct {
	Recipient common.Address `json:"recipient"`
	Nonce     *big.Int       `json:"nonce"`
	Signature []byte         `json:"signature"`
}

// Domain fixes the EIP-712 domain parameters for one deployment.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

const (
	DomainName    = "0G Genesis Pass"
	DomainVersion = "1"
)

// NewDomain returns the deployment domain with the fixed name and version.
func NewDomain(chainID *big.Int, contractAddr common.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           new(big.Int).Set(chainID),
		VerifyingContract: contractAddr,
	}
}

var (
	ErrInvalidConfiguration = errors.New("invalid configuration: voucher signer not set")
	ErrInvalidVoucherSigner = errors.New("invalid voucher signer")
	ErrReplayedVoucher      = errors.New("voucher already redeemed")
	ErrMalformedVoucher     = errors.New("malformed voucher")
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func validNonce(n *big.Int) bool {
	return n != nil && n.Sign() >= 0 && n.Cmp(maxUint256) <= 0
}

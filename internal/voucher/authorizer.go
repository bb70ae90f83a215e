package voucher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Authorizer verifies vouchers against one fixed signer and domain.
// It never records consumption; the mint commit does that.
type Authorizer struct {
	signer    common.Address
	domain    Domain
	separator [32]byte
}

func NewAuthorizer(signer common.Address, d Domain) (*Authorizer, error) {
	if signer == (common.Address{}) {
		return nil, ErrInvalidConfiguration
	}
	if d.ChainID == nil {
		return nil, fmt.Errorf("%w: chain id missing", ErrInvalidConfiguration)
	}
	return &Authorizer{signer: signer, domain: d, separator: d.Separator()}, nil
}

// Signer returns the configured authorizing address.
func (a *Authorizer) Signer() common.Address { return a.signer }

// Domain returns the domain vouchers are verified under.
func (a *Authorizer) Domain() Domain { return a.domain }

// Authorize checks replay first, then the signature. consumed is the replay
// record for (v.Recipient, v.Nonce) as read by the caller.
func (a *Authorizer) Authorize(v *MintVoucher, consumed bool) error {
	if !validNonce(v.Nonce) {
		return ErrMalformedVoucher
	}
	if consumed {
		return ErrReplayedVoucher
	}
	h := digest(a.separator, v.Recipient, v.Nonce.Bytes())
	recovered, err := recoverSigner(h, v.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVoucherSigner, err)
	}
	if recovered != a.signer {
		return ErrInvalidVoucherSigner
	}
	return nil
}

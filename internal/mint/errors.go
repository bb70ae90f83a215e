package mint

import (
	"errors"

	"github.com/0gfoundation/0g-genesis-mint/internal/sequence"
	"github.com/0gfoundation/0g-genesis-mint/internal/voucher"
)

// Every error aborts the call with no state change.
var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrSingleQuotaExceeded = errors.New("single mint quota exceeded")
	ErrBatchQuotaExceeded  = errors.New("batch mint quota exceeded")

	ErrSupplyExhausted    = sequence.ErrSupplyExhausted
	ErrBatchExceedsSupply = sequence.ErrBatchExceedsSupply

	ErrReplayedVoucher      = voucher.ErrReplayedVoucher
	ErrInvalidVoucherSigner = voucher.ErrInvalidVoucherSigner
	ErrMalformedVoucher     = voucher.ErrMalformedVoucher
	ErrInvalidConfiguration = voucher.ErrInvalidConfiguration
)

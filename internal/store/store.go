// Package store owns the mutable mint state: issued counter, quota table,
// voucher replay records and token owners.
//
// Reads go through Snapshot; writes go through a single compare-and-set
// Commit so that counter, quota, replay record and ownership advance together
// or not at all.
package store

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
	"github.com/0gfoundation/0g-genesis-mint/internal/sequence"
)

// ErrConflict means the state moved since the snapshot the commit was built on.
var ErrConflict = errors.New("store: state changed since snapshot")

// VoucherKey identifies a replay record.
type VoucherKey struct {
	Recipient common.Address
	Nonce     *big.Int
}

// Snapshot is the state an entry point reads once at the start of a call.
type Snapshot struct {
	Issued          uint64
	Quota           quota.State
	VoucherConsumed bool
}

// Commit is the full effect of one successful mint.
type Commit struct {
	Caller     common.Address
	Owner      common.Address
	PrevIssued uint64
	PrevQuota  quota.State
	NewQuota   quota.State
	Alloc      sequence.Allocation
	Voucher    *VoucherKey
}

func (c Commit) validate() error {
	if c.Alloc.First != c.PrevIssued+1 || c.Alloc.Last < c.Alloc.First {
		return errors.New("store: allocation does not follow issued count")
	}
	if !quota.Valid(c.NewQuota) {
		return errors.New("store: quota state out of range")
	}
	return nil
}

// Store is the state backend used by the mint coordinator.
type Store interface {
	Snapshot(ctx context.Context, caller common.Address, v *VoucherKey) (Snapshot, error)
	Commit(ctx context.Context, c Commit) error

	IssuedCount(ctx context.Context) (uint64, error)
	QuotaState(ctx context.Context, addr common.Address) (quota.State, error)
	VoucherConsumed(ctx context.Context, recipient common.Address, nonce *big.Int) (bool, error)
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, bool, error)
}

func addrKey(a common.Address) string { return strings.ToLower(a.Hex()) }

// Package mint implements the three mint entry points: direct single,
// voucher single and batch.
//
// Each entry point reads one snapshot, runs every check against it, and then
// writes one commit. A failed check returns before anything is written.
package mint

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
	"github.com/0gfoundation/0g-genesis-mint/internal/sequence"
	"github.com/0gfoundation/0g-genesis-mint/internal/store"
	"github.com/0gfoundation/0g-genesis-mint/internal/voucher"
)

// Prices are the fixed payment thresholds, in wei.
type Prices struct {
	Single *big.Int
	Batch  *big.Int
}

// Result describes a successful mint.
type Result struct {
	Recipient common.Address
	TokenIDs  []uint64
	Quota     quota.State
}

// Coordinator serializes mints over a shared store.
type Coordinator struct {
	mu     sync.Mutex
	store  store.Store
	auth   *voucher.Authorizer
	seq    *sequence.Sequencer
	prices Prices
	sink   Sink
	log    *zap.Logger
}

func NewCoordinator(
	st store.Store,
	auth *voucher.Authorizer,
	seq *sequence.Sequencer,
	prices Prices,
	sink Sink,
	log *zap.Logger,
) (*Coordinator, error) {
	if st == nil || auth == nil || seq == nil {
		return nil, fmt.Errorf("%w: store, authorizer and sequencer are required", ErrInvalidConfiguration)
	}
	if prices.Single == nil || prices.Batch == nil || prices.Single.Sign() < 0 || prices.Batch.Sign() < 0 {
		return nil, fmt.Errorf("%w: prices must be non-negative", ErrInvalidConfiguration)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = NewLogSink(log)
	}
	return &Coordinator{
		store: st,
		auth:  auth,
		seq:   seq,
		prices: Prices{
			Single: new(big.Int).Set(prices.Single),
			Batch:  new(big.Int).Set(prices.Batch),
		},
		sink: sink,
		log:  log,
	}, nil
}

// Prices returns a copy of the configured thresholds.
func (c *Coordinator) Prices() Prices {
	return Prices{Single: new(big.Int).Set(c.prices.Single), Batch: new(big.Int).Set(c.prices.Batch)}
}

// Authorizer returns the voucher authorizer the coordinator verifies against.
func (c *Coordinator) Authorizer() *voucher.Authorizer { return c.auth }

// MaxSupply returns the global ceiling.
func (c *Coordinator) MaxSupply() uint64 { return c.seq.Max() }

func paid(payment, price *big.Int) bool {
	if payment == nil {
		return price.Sign() == 0
	}
	return payment.Cmp(price) >= 0
}

// MintDirect mints one token to caller against payment.
func (c *Coordinator) MintDirect(ctx context.Context, caller common.Address, payment *big.Int) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.store.Snapshot(ctx, caller, nil)
	if err != nil {
		return Result{}, err
	}
	if !paid(payment, c.prices.Single) {
		return Result{}, ErrInsufficientPayment
	}
	if !quota.CanSingleMint(snap.Quota) {
		return Result{}, ErrSingleQuotaExceeded
	}
	alloc, err := c.seq.AllocateOne(snap.Issued)
	if err != nil {
		return Result{}, err
	}

	res, err := c.commit(ctx, store.Commit{
		Caller:     caller,
		Owner:      caller,
		PrevIssued: snap.Issued,
		PrevQuota:  snap.Quota,
		NewQuota:   quota.AfterSingleMint(snap.Quota),
		Alloc:      alloc,
	})
	if err != nil {
		return Result{}, err
	}
	c.emit(ctx, Event{Kind: KindSingle, Recipient: caller, TokenIDs: res.TokenIDs})
	return res, nil
}

// MintByVoucher redeems v, minting to v.Recipient. The single-mint quota is
// debited from caller, the submitting identity, not from the recipient.
func (c *Coordinator) MintByVoucher(ctx context.Context, caller common.Address, v *voucher.MintVoucher) (Result, error) {
	if v == nil || v.Nonce == nil {
		return Result{}, ErrMalformedVoucher
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	vk := &store.VoucherKey{Recipient: v.Recipient, Nonce: v.Nonce}
	snap, err := c.store.Snapshot(ctx, caller, vk)
	if err != nil {
		return Result{}, err
	}
	if err := c.auth.Authorize(v, snap.VoucherConsumed); err != nil {
		return Result{}, err
	}
	if !quota.CanSingleMint(snap.Quota) {
		return Result{}, ErrSingleQuotaExceeded
	}
	alloc, err := c.seq.AllocateOne(snap.Issued)
	if err != nil {
		return Result{}, err
	}

	res, err := c.commit(ctx, store.Commit{
		Caller:     caller,
		Owner:      v.Recipient,
		PrevIssued: snap.Issued,
		PrevQuota:  snap.Quota,
		NewQuota:   quota.AfterSingleMint(snap.Quota),
		Alloc:      alloc,
		Voucher:    vk,
	})
	if err != nil {
		return Result{}, err
	}
	c.emit(ctx, Event{
		Kind:      KindVoucher,
		Recipient: v.Recipient,
		Nonce:     new(big.Int).Set(v.Nonce),
		TokenIDs:  res.TokenIDs,
	})
	return res, nil
}

// MintBatch mints sequence.BatchSize contiguous tokens to caller.
func (c *Coordinator) MintBatch(ctx context.Context, caller common.Address, payment *big.Int) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.store.Snapshot(ctx, caller, nil)
	if err != nil {
		return Result{}, err
	}
	if !paid(payment, c.prices.Batch) {
		return Result{}, ErrInsufficientPayment
	}
	if !quota.CanBatchMint(snap.Quota) {
		return Result{}, ErrBatchQuotaExceeded
	}
	alloc, err := c.seq.AllocateBatch(snap.Issued, sequence.BatchSize)
	if err != nil {
		return Result{}, err
	}

	res, err := c.commit(ctx, store.Commit{
		Caller:     caller,
		Owner:      caller,
		PrevIssued: snap.Issued,
		PrevQuota:  snap.Quota,
		NewQuota:   quota.AfterBatchMint(snap.Quota),
		Alloc:      alloc,
	})
	if err != nil {
		return Result{}, err
	}
	c.emit(ctx, Event{Kind: KindBatch, Recipient: caller, TokenIDs: res.TokenIDs})
	return res, nil
}

func (c *Coordinator) commit(ctx context.Context, cm store.Commit) (Result, error) {
	if err := c.store.Commit(ctx, cm); err != nil {
		return Result{}, fmt.Errorf("commit mint: %w", err)
	}
	return Result{Recipient: cm.Owner, TokenIDs: cm.Alloc.IDs(), Quota: cm.NewQuota}, nil
}

// emit runs after commit; a sink failure is logged and the mint stands.
func (c *Coordinator) emit(ctx context.Context, e Event) {
	if err := c.sink.Emit(ctx, e); err != nil {
		c.log.Warn("emit mint event failed",
			zap.String("kind", string(e.Kind)),
			zap.String("recipient", e.Recipient.Hex()),
			zap.Uint64s("tokens", e.TokenIDs),
			zap.Error(err),
		)
	}
}

// ── Read surface ──────────────────────────────────────────────────────────────

func (c *Coordinator) IssuedCount(ctx context.Context) (uint64, error) {
	return c.store.IssuedCount(ctx)
}

func (c *Coordinator) QuotaState(ctx context.Context, addr common.Address) (quota.State, error) {
	return c.store.QuotaState(ctx, addr)
}

func (c *Coordinator) VoucherConsumed(ctx context.Context, recipient common.Address, nonce *big.Int) (bool, error) {
	return c.store.VoucherConsumed(ctx, recipient, nonce)
}

func (c *Coordinator) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, bool, error) {
	return c.store.OwnerOf(ctx, tokenID)
}

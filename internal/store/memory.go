package store

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
)

// Memory is an in-process Store. State is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	issued   uint64
	quotas   map[string]quota.State
	vouchers map[string]bool
	owners   map[uint64]common.Address
}

func NewMemory() *Memory {
	return &Memory{
		quotas:   make(map[string]quota.State),
		vouchers: make(map[string]bool),
		owners:   make(map[uint64]common.Address),
	}
}

func voucherID(recipient common.Address, nonce *big.Int) string {
	return addrKey(recipient) + ":" + nonce.String()
}

func (m *Memory) Snapshot(_ context.Context, caller common.Address, v *VoucherKey) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{Issued: m.issued, Quota: m.quotas[addrKey(caller)]}
	if v != nil {
		s.VoucherConsumed = m.vouchers[voucherID(v.Recipient, v.Nonce)]
	}
	return s, nil
}

func (m *Memory) Commit(_ context.Context, c Commit) error {
	if err := c.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	qk := addrKey(c.Caller)
	if m.issued != c.PrevIssued || m.quotas[qk] != c.PrevQuota {
		return ErrConflict
	}
	var vk string
	if c.Voucher != nil {
		vk = voucherID(c.Voucher.Recipient, c.Voucher.Nonce)
		if m.vouchers[vk] {
			return ErrConflict
		}
	}

	for id := c.Alloc.First; id <= c.Alloc.Last; id++ {
		m.owners[id] = c.Owner
	}
	m.issued = c.Alloc.IssuedAfter()
	m.quotas[qk] = c.NewQuota
	if c.Voucher != nil {
		m.vouchers[vk] = true
	}
	return nil
}

func (m *Memory) IssuedCount(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.issued, nil
}

func (m *Memory) QuotaState(_ context.Context, addr common.Address) (quota.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quotas[addrKey(addr)], nil
}

func (m *Memory) VoucherConsumed(_ context.Context, recipient common.Address, nonce *big.Int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vouchers[voucherID(recipient, nonce)], nil
}

func (m *Memory) OwnerOf(_ context.Context, tokenID uint64) (common.Address, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[tokenID]
	return owner, ok, nil
}

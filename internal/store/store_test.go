package store

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
	"github.com/0gfoundation/0g-genesis-mint/internal/sequence"
)

// ── helpers ───────────────────────────────────────────────────────────────────

var (
	testCaller    = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	testRecipient = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("redis", func(t *testing.T) { fn(t, NewRedis(newTestRedis(t))) })
}

func singleCommit(prevIssued uint64, prevQuota quota.State) Commit {
	return Commit{
		Caller:     testCaller,
		Owner:      testCaller,
		PrevIssued: prevIssued,
		PrevQuota:  prevQuota,
		NewQuota:   quota.AfterSingleMint(prevQuota),
		Alloc:      sequence.Allocation{First: prevIssued + 1, Last: prevIssued + 1},
	}
}

// ── Snapshot ──────────────────────────────────────────────────────────────────

func TestSnapshot_FreshState(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		snap, err := s.Snapshot(context.Background(), testCaller, &VoucherKey{Recipient: testRecipient, Nonce: big.NewInt(0)})
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap != (Snapshot{}) {
			t.Fatalf("fresh snapshot: got %+v", snap)
		}
	})
}

// ── Commit ────────────────────────────────────────────────────────────────────

func TestCommit_Single(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Commit(ctx, singleCommit(0, 0)); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		issued, _ := s.IssuedCount(ctx)
		q, _ := s.QuotaState(ctx, testCaller)
		owner, ok, _ := s.OwnerOf(ctx, 1)
		if issued != 1 || q != 1 || !ok || owner != testCaller {
			t.Fatalf("issued=%d quota=%d owner=%s ok=%v", issued, q, owner.Hex(), ok)
		}
		if _, ok, _ := s.OwnerOf(ctx, 2); ok {
			t.Error("token 2 should have no owner yet")
		}
	})
}

func TestCommit_BatchAssignsWholeRange(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := Commit{
			Caller:   testCaller,
			Owner:    testCaller,
			NewQuota: quota.AfterBatchMint(0),
			Alloc:    sequence.Allocation{First: 1, Last: sequence.BatchSize},
		}
		if err := s.Commit(ctx, c); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		for id := uint64(1); id <= sequence.BatchSize; id++ {
			owner, ok, err := s.OwnerOf(ctx, id)
			if err != nil || !ok || owner != testCaller {
				t.Errorf("token %d: owner=%s ok=%v err=%v", id, owner.Hex(), ok, err)
			}
		}
		issued, _ := s.IssuedCount(ctx)
		if issued != sequence.BatchSize {
			t.Errorf("issued: got %d want %d", issued, sequence.BatchSize)
		}
		q, _ := s.QuotaState(ctx, testCaller)
		if q != quota.BatchMarker {
			t.Errorf("quota: got %d want %d", q, quota.BatchMarker)
		}
	})
}

func TestCommit_VoucherMarkedConsumed(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		vk := &VoucherKey{Recipient: testRecipient, Nonce: big.NewInt(9)}
		c := singleCommit(0, 0)
		c.Owner = testRecipient
		c.Voucher = vk
		if err := s.Commit(ctx, c); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		used, _ := s.VoucherConsumed(ctx, testRecipient, big.NewInt(9))
		if !used {
			t.Fatal("voucher should be consumed")
		}
		other, _ := s.VoucherConsumed(ctx, testRecipient, big.NewInt(10))
		if other {
			t.Fatal("unrelated nonce should not be consumed")
		}
		snap, _ := s.Snapshot(ctx, testCaller, vk)
		if !snap.VoucherConsumed || snap.Issued != 1 || snap.Quota != 1 {
			t.Fatalf("snapshot after commit: %+v", snap)
		}

		// Same voucher again must conflict and change nothing.
		again := singleCommit(1, 1)
		again.Voucher = vk
		if err := s.Commit(ctx, again); !errors.Is(err, ErrConflict) {
			t.Fatalf("replayed voucher commit: got %v want ErrConflict", err)
		}
		issued, _ := s.IssuedCount(ctx)
		if issued != 1 {
			t.Fatalf("issued moved on conflict: %d", issued)
		}
	})
}

func TestCommit_StaleSnapshotConflicts(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Commit(ctx, singleCommit(0, 0)); err != nil {
			t.Fatal(err)
		}
		stale := singleCommit(0, 0)
		if err := s.Commit(ctx, stale); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale issued: got %v want ErrConflict", err)
		}

		staleQuota := singleCommit(1, 0)
		if err := s.Commit(ctx, staleQuota); !errors.Is(err, ErrConflict) {
			t.Fatalf("stale quota: got %v want ErrConflict", err)
		}
		issued, _ := s.IssuedCount(ctx)
		q, _ := s.QuotaState(ctx, testCaller)
		if issued != 1 || q != 1 {
			t.Fatalf("state moved on conflict: issued=%d quota=%d", issued, q)
		}
	})
}

func TestCommit_RejectsMalformed(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		gap := singleCommit(0, 0)
		gap.Alloc = sequence.Allocation{First: 2, Last: 2}
		if err := s.Commit(ctx, gap); err == nil {
			t.Error("allocation skipping an id should be rejected")
		}
		bad := singleCommit(0, 0)
		bad.NewQuota = 4
		if err := s.Commit(ctx, bad); err == nil {
			t.Error("unreachable quota state should be rejected")
		}
		issued, _ := s.IssuedCount(ctx)
		if issued != 0 {
			t.Fatalf("issued moved: %d", issued)
		}
	})
}

func TestRedis_QuotaKeyCaseInsensitive(t *testing.T) {
	rdb := newTestRedis(t)
	s := NewRedis(rdb)
	ctx := context.Background()
	if err := s.Commit(ctx, singleCommit(0, 0)); err != nil {
		t.Fatal(err)
	}
	raw, err := rdb.Get(ctx, "mint:quota:0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa").Result()
	if err != nil {
		t.Fatalf("GET quota key: %v", err)
	}
	if raw != "1" {
		t.Errorf("quota raw: got %q want 1", raw)
	}
}

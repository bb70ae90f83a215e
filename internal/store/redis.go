package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
)

// Redis key templates
const (
	IssuedKey      = "mint:issued"
	QuotaKeyFmt    = "mint:quota:%s"      // %s = lowercase address
	VoucherKeyFmt  = "mint:voucher:%s:%s" // %s = lowercase recipient, decimal nonce
	OwnerKeyPrefix = "mint:owner:"        // + decimal token id
)

// commitScript applies one mint atomically if nothing moved since the snapshot.
//
// KEYS[1] issued, KEYS[2] quota, KEYS[3] voucher (optional)
// ARGV: prevIssued, newIssued, prevQuota, newQuota, owner, ownerPrefix
var commitScript = redis.NewScript(`
local issued = tonumber(redis.call('GET', KEYS[1]) or '0')
if issued ~= tonumber(ARGV[1]) then return 0 end
local q = tonumber(redis.call('GET', KEYS[2]) or '0')
if q ~= tonumber(ARGV[3]) then return 0 end
if #KEYS >= 3 and redis.call('EXISTS', KEYS[3]) == 1 then return 0 end
for id = issued + 1, tonumber(ARGV[2]) do
  redis.call('SET', ARGV[6] .. id, ARGV[5])
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SET', KEYS[2], ARGV[4])
if #KEYS >= 3 then redis.call('SET', KEYS[3], '1') end
return 1
`)

// Redis is a Store backed by a single Redis instance.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func quotaKey(a common.Address) string { return fmt.Sprintf(QuotaKeyFmt, addrKey(a)) }

func voucherKey(recipient common.Address, nonce *big.Int) string {
	return fmt.Sprintf(VoucherKeyFmt, addrKey(recipient), nonce.String())
}

func ownerKey(id uint64) string { return OwnerKeyPrefix + strconv.FormatUint(id, 10) }

func (r *Redis) Snapshot(ctx context.Context, caller common.Address, v *VoucherKey) (Snapshot, error) {
	keys := []string{IssuedKey, quotaKey(caller)}
	if v != nil {
		keys = append(keys, voucherKey(v.Recipient, v.Nonce))
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	issued, err := parseUint(vals[0])
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot issued: %w", err)
	}
	q, err := parseUint(vals[1])
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot quota: %w", err)
	}
	s := Snapshot{Issued: issued, Quota: quota.State(q)}
	if v != nil {
		s.VoucherConsumed = vals[2] != nil
	}
	return s, nil
}

func (r *Redis) Commit(ctx context.Context, c Commit) error {
	if err := c.validate(); err != nil {
		return err
	}
	keys := []string{IssuedKey, quotaKey(c.Caller)}
	if c.Voucher != nil {
		keys = append(keys, voucherKey(c.Voucher.Recipient, c.Voucher.Nonce))
	}
	ok, err := commitScript.Run(ctx, r.rdb, keys,
		c.PrevIssued,
		c.Alloc.IssuedAfter(),
		uint8(c.PrevQuota),
		uint8(c.NewQuota),
		c.Owner.Hex(),
		OwnerKeyPrefix,
	).Int64()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if ok != 1 {
		return ErrConflict
	}
	return nil
}

func (r *Redis) IssuedCount(ctx context.Context) (uint64, error) {
	return r.getUint(ctx, IssuedKey)
}

func (r *Redis) QuotaState(ctx context.Context, addr common.Address) (quota.State, error) {
	n, err := r.getUint(ctx, quotaKey(addr))
	return quota.State(n), err
}

func (r *Redis) VoucherConsumed(ctx context.Context, recipient common.Address, nonce *big.Int) (bool, error) {
	n, err := r.rdb.Exists(ctx, voucherKey(recipient, nonce)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Redis) OwnerOf(ctx context.Context, tokenID uint64) (common.Address, bool, error) {
	s, err := r.rdb.Get(ctx, ownerKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	return common.HexToAddress(s), true, nil
}

func (r *Redis) getUint(ctx context.Context, key string) (uint64, error) {
	s, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, 64)
}

// parseUint reads an MGET element; missing keys come back as nil.
func parseUint(v interface{}) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseUint(s, 10, 64)
}

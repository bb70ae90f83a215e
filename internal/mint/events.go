package mint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Kind names the channel a mint came through.
type Kind string

const (
	KindSingle  Kind = "single"
	KindVoucher Kind = "voucher"
	KindBatch   Kind = "batch"
)

// EventQueueKey is the Redis list RedisSink appends to.
const EventQueueKey = "mint:events"

// Event is the audit record of one successful mint. Nonce is set only for
// voucher mints.
type Event struct {
	Kind      Kind           `json:"kind"`
	Recipient common.Address `json:"recipient"`
	Nonce     *big.Int       `json:"nonce,omitempty"`
	TokenIDs  []uint64       `json:"token_ids"`
}

// Sink receives mint events after the state has been committed.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// LogSink writes events to a zap logger.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Emit(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("kind", string(e.Kind)),
		zap.String("recipient", e.Recipient.Hex()),
		zap.Uint64s("tokens", e.TokenIDs),
	}
	if e.Nonce != nil {
		fields = append(fields, zap.String("nonce", e.Nonce.String()))
	}
	s.log.Info("mint event", fields...)
	return nil
}

// RedisSink pushes events as JSON onto a Redis list for downstream consumers.
type RedisSink struct {
	rdb *redis.Client
	key string
}

func NewRedisSink(rdb *redis.Client, key string) *RedisSink {
	if key == "" {
		key = EventQueueKey
	}
	return &RedisSink{rdb: rdb, key: key}
}

func (s *RedisSink) Emit(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.rdb.RPush(ctx, s.key, string(raw)).Err()
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

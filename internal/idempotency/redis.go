package idempotency

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const paidKeyPrefix = "reward:paid:"

// RedisStore keeps one hash per paid key so several service replicas share
// the same dedup state. Each hash also carries a Redis TTL equal to the
// retention window, so records expire even if no sweep ever runs.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func paidKey(k Key) string {
	return paidKeyPrefix + k.Recipient + ":" + k.IdempotencyKey
}

func (s *RedisStore) Lookup(ctx context.Context, k Key) (Record, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, paidKey(k)).Result()
	if err != nil {
		return Record{}, false, fmt.Errorf("hgetall paid record: %w", err)
	}
	if len(vals) == 0 {
		return Record{}, false, nil
	}
	rec, err := recordFromMap(vals)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *RedisStore) Save(ctx context.Context, k Key, signature string, at time.Time) error {
	key := paidKey(k)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"recipient", k.Recipient,
			"idempotency_key", k.IdempotencyKey,
			"signature", signature,
			"recorded_at", at.UnixMilli(),
		)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save paid record: %w", err)
	}
	return nil
}

// sweepScript deletes KEYS[1] only if its recorded_at is still older than the
// cutoff in ARGV[1], so a record re-saved after the scan survives.
var sweepScript = redis.NewScript(`
local at = tonumber(redis.call('HGET', KEYS[1], 'recorded_at'))
if at and at < tonumber(ARGV[1]) then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Sweep scans all paid records and deletes those past the retention window.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl).UnixMilli()
	removed := 0
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, paidKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("scan paid records: %w", err)
		}
		for _, key := range keys {
			n, err := sweepScript.Run(ctx, s.rdb, []string{key}, cutoff).Int()
			if err != nil {
				return removed, fmt.Errorf("sweep paid record: %w", err)
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return removed, nil
}

func recordFromMap(m map[string]string) (Record, error) {
	ms, err := strconv.ParseInt(m["recorded_at"], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return Record{
		Signature:  m["signature"],
		RecordedAt: time.UnixMilli(ms),
	}, nil
}

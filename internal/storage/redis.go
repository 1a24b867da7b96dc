package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "daily_spark:snippets"

// RedisStore keeps records in a sorted set scored by moment. Members are
// "<moment>:<seq>:<json>" with fixed-width numbers, so members with equal
// scores sort by moment and then by insertion sequence. The sequence comes
// from INCR on key+":seq".
type RedisStore struct {
	rdb *redis.Client
	key string
	loc *time.Location
}

func OpenRedis(ctx context.Context, dsn string, loc *time.Location) (*RedisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewRedisStore(rdb, DefaultRedisKey, loc), nil
}

func NewRedisStore(rdb *redis.Client, key string, loc *time.Location) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, loc: loc}
}

// momentKey maps a moment to an unsigned value whose decimal form sorts
// like the moment, including moments before 1970.
func momentKey(t time.Time) uint64 {
	return uint64(t.UnixNano()) ^ (1 << 63)
}

func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	b, err := json.Marshal(fileLine{ID: rec.ID, At: rec.Timestamp.Format(momentLayout), Origin: rec.Origin, Text: rec.Text})
	if err != nil {
		return fmt.Errorf("encode snippet: %w", err)
	}
	seq, err := s.rdb.Incr(ctx, s.key+":seq").Result()
	if err != nil {
		return fmt.Errorf("incr snippet seq: %w", err)
	}
	member := fmt.Sprintf("%020d:%020d:%s", momentKey(rec.Timestamp), seq, b)
	z := redis.Z{Score: float64(rec.Timestamp.UnixNano()), Member: member}
	if err := s.rdb.ZAdd(ctx, s.key, z).Err(); err != nil {
		return fmt.Errorf("zadd snippet: %w", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	vals, err := s.rdb.ZRevRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrangebyscore snippets: %w", err)
	}
	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		parts := strings.SplitN(v, ":", 3)
		if len(parts) != 3 {
			continue
		}
		var ln fileLine
		if err := json.Unmarshal([]byte(parts[2]), &ln); err != nil {
			continue
		}
		rec := Record{ID: ln.ID, Text: ln.Text, Origin: ln.Origin}
		parseMoment(&rec, ln.At, s.loc)
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

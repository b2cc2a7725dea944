package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"verification-gateway/middleware/throttle/domain"

	"github.com/redis/go-redis/v9"
)

const (
	fieldCount  = "count"
	fieldLast   = "last_ms"
	fieldWindow = "window_ms"
)

// RedisStore guarda um hash por identidade. Update usa WATCH/MULTI
// (transação otimista) e tenta de novo quando outra escrita ganha a corrida.
type RedisStore struct {
	rdb *redis.Client

	prefix string
	// ttl é renovado a cada escrita; o registro é cache derivado e pode expirar.
	ttl        time.Duration
	maxRetries int
}

type RedisStoreOption func(*RedisStore)

func WithStorePrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStoreTTL(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = d }
}

func WithMaxRetries(n int) RedisStoreOption {
	return func(s *RedisStore) { s.maxRetries = n }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:        rdb,
		prefix:     "throttle:attempt",
		ttl:        domain.DayWindow,
		maxRetries: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxRetries <= 0 {
		s.maxRetries = 1
	}
	return s
}

func (s *RedisStore) key(id domain.Identity) string {
	return s.prefix + ":" + string(id)
}

// Load implementa domain.AttemptStore.
func (s *RedisStore) Load(ctx context.Context, id domain.Identity) (domain.AttemptRecord, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	rec, found, err := decodeRecord(id, vals)
	if err != nil {
		return domain.AttemptRecord{}, false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return rec, found, nil
}

// Update implementa domain.AttemptStore. O erro de fn volta sem embrulho.
func (s *RedisStore) Update(ctx context.Context, id domain.Identity, fn func(*domain.AttemptRecord, bool) error) error {
	key := s.key(id)

	for i := 0; i < s.maxRetries; i++ {
		var fnErr error
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			vals, err := tx.HGetAll(ctx, key).Result()
			if err != nil {
				return err
			}
			rec, found, err := decodeRecord(id, vals)
			if err != nil {
				return err
			}
			if err := fn(&rec, found); err != nil {
				fnErr = err
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, encodeRecord(rec))
				if s.ttl > 0 {
					pipe.PExpire(ctx, key, s.ttl)
				}
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return nil
		case fnErr != nil:
			return fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
	}
	return fmt.Errorf("%w: update %q lost %d optimistic retries", domain.ErrStoreUnavailable, id, s.maxRetries)
}

func encodeRecord(rec domain.AttemptRecord) map[string]any {
	return map[string]any{
		fieldCount:  rec.AttemptCount,
		fieldLast:   toMillis(rec.LastAttemptAt),
		fieldWindow: toMillis(rec.WindowStartAt),
	}
}

func decodeRecord(id domain.Identity, vals map[string]string) (domain.AttemptRecord, bool, error) {
	rec := domain.AttemptRecord{Identity: id}
	if len(vals) == 0 {
		return rec, false, nil
	}

	count, err := parseInt(vals[fieldCount])
	if err != nil {
		return rec, false, fmt.Errorf("decode %s: %w", fieldCount, err)
	}
	last, err := parseInt(vals[fieldLast])
	if err != nil {
		return rec, false, fmt.Errorf("decode %s: %w", fieldLast, err)
	}
	window, err := parseInt(vals[fieldWindow])
	if err != nil {
		return rec, false, fmt.Errorf("decode %s: %w", fieldWindow, err)
	}

	rec.AttemptCount = int(count)
	rec.LastAttemptAt = fromMillis(last)
	rec.WindowStartAt = fromMillis(window)
	return rec, true, nil
}

func parseInt(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

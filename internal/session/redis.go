package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/park285/RPS-KakaoTalk-bot/internal/domain"
	"github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
	"go.uber.org/zap"
)

const (
	keyPrefix      = "rps:session:"
	maxTxRetries   = 3
	defaultLockTTL = 2 * time.Minute
)

var errPairBusy = errors.New("pair busy")

// RedisRegistry shares match locks between bot replicas. Every key expires after ttl so a
// crashed replica never leaves a player stuck.
type RedisRegistry struct {
    rdb *redis.Client
    ttl time.Duration
}

var _ Registry = (*RedisRegistry)(nil)

func NewRedisRegistry(rdb *redis.Client, ttl time.Duration) *RedisRegistry {
    if ttl <= 0 {
        ttl = defaultLockTTL
    }
    return &RedisRegistry{rdb: rdb, ttl: ttl}
}

// NewRedisRegistryFromURL dials REDIS_URL and pings it before returning.
func NewRedisRegistryFromURL(ctx context.Context, redisURL string, ttl time.Duration) (*RedisRegistry, error) {
    opts, err := ParseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return NewRedisRegistry(rdb, ttl), nil
}

func (r *RedisRegistry) Close() error {
    if r == nil || r.rdb == nil { return nil }
    return r.rdb.Close()
}

func key(id domain.PlayerID) string { return keyPrefix + strings.TrimSpace(string(id)) }

func (r *RedisRegistry) TryAcquire(ctx context.Context, id domain.PlayerID) (bool, error) {
    ok, err := r.rdb.SetNX(ctx, key(id), time.Now().Unix(), r.ttl).Result()
    if err != nil {
        return false, fmt.Errorf("acquire session: %w", err)
    }
    return ok, nil
}

func (r *RedisRegistry) TryAcquirePair(ctx context.Context, a, b domain.PlayerID) (domain.PlayerID, error) {
    ka, kb := key(a), key(b)
    var busy domain.PlayerID
    for attempt := 0; attempt < maxTxRetries; attempt++ {
        busy = ""
        err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
            n, err := tx.Exists(ctx, ka).Result()
            if err != nil { return err }
            if n > 0 { busy = a; return errPairBusy }
            n, err = tx.Exists(ctx, kb).Result()
            if err != nil { return err }
            if n > 0 { busy = b; return errPairBusy }
            now := time.Now().Unix()
            _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
                pipe.Set(ctx, ka, now, r.ttl)
                pipe.Set(ctx, kb, now, r.ttl)
                return nil
            })
            return err
        }, ka, kb)
        switch {
        case err == nil:
            return "", nil
        case errors.Is(err, errPairBusy):
            return busy, nil
        case errors.Is(err, redis.TxFailedErr):
            // a concurrent acquire touched one of the keys; re-check
            obslog.L().Debug("session_pair_retry", zap.String("a", string(a)), zap.String("b", string(b)), zap.Int("attempt", attempt+1))
            continue
        default:
            return "", fmt.Errorf("acquire session pair: %w", err)
        }
    }
    return "", fmt.Errorf("acquire session pair: %w", redis.TxFailedErr)
}

func (r *RedisRegistry) Release(ctx context.Context, ids ...domain.PlayerID) error {
    if len(ids) == 0 { return nil }
    keys := make([]string, 0, len(ids))
    for _, id := range ids {
        keys = append(keys, key(id))
    }
    if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
        return fmt.Errorf("release session: %w", err)
    }
    return nil
}

func (r *RedisRegistry) Active(ctx context.Context, id domain.PlayerID) (bool, error) {
    n, err := r.rdb.Exists(ctx, key(id)).Result()
    if err != nil {
        return false, fmt.Errorf("session lookup: %w", err)
    }
    return n > 0, nil
}

// ParseRedisURL converts redis://[:password@]host:port/db into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
    if strings.TrimSpace(raw) == "" { return nil, fmt.Errorf("REDIS_URL is empty") }
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

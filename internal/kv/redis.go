package kv

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "chessmatch:"

// Redis stores records as plain string values and keeps a SET per bucket so keys
// can be enumerated without SCAN. Update uses WATCH on every key it reads and
// commits in MULTI/EXEC, retrying when a watched key changed.
type Redis struct {
	rdb       *redis.Client
	namespace string
	retries   int
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, namespace: defaultNamespace, retries: 8}
}

// DialRedis connects to redis://[:password@]host:port/db and pings the server.
func DialRedis(ctx context.Context, rawURL string) (*Redis, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := ParseRedisURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

// ParseRedisURL accepts redis:// and rediss:// URLs.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *Redis) key(k string) string { return r.namespace + k }

func (r *Redis) indexKey(bucket string) string { return r.namespace + "idx:" + bucket }

func (r *Redis) Update(ctx context.Context, fn func(Tx) error) error {
	for attempt := 0; attempt < r.retries; attempt++ {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			rt := &redisTx{ctx: ctx, r: r, tx: tx, writes: make(map[string][]byte)}
			if err := fn(rt); err != nil {
				return err
			}
			if len(rt.order) == 0 {
				return nil
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for _, k := range rt.order {
					bucket, _ := bucketOf(k)
					pipe.Set(ctx, r.key(k), rt.writes[k], 0)
					pipe.SAdd(ctx, r.indexKey(bucket), k)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

// View는 fn이 읽은 키를 모두 WATCH 하고 빈 MULTI/EXEC로 변경 여부를 확인한다.
// 중간에 바뀐 키가 있으면 fn을 다시 실행하므로 여러 키 조회도 하나의 스냅샷을 본다.
func (r *Redis) View(ctx context.Context, fn func(Tx) error) error {
	for attempt := 0; attempt < r.retries; attempt++ {
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			if err := fn(&redisTx{ctx: ctx, r: r, tx: tx, readOnly: true}); err != nil {
				return err
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Ping(ctx)
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

type redisTx struct {
	ctx      context.Context
	r        *Redis
	tx       *redis.Tx
	writes   map[string][]byte
	order    []string
	readOnly bool
}

func (t *redisTx) watch(key string) error {
	return t.tx.Watch(t.ctx, key).Err()
}

func (t *redisTx) Get(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	full := t.r.key(key)
	if err := t.watch(full); err != nil {
		return nil, err
	}
	raw, err := t.tx.Get(t.ctx, full).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *redisTx) Has(key string) (bool, error) {
	if _, ok := t.writes[key]; ok {
		return true, nil
	}
	full := t.r.key(key)
	if err := t.watch(full); err != nil {
		return false, err
	}
	n, err := t.tx.Exists(t.ctx, full).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *redisTx) Put(key string, value []byte) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if _, err := bucketOf(key); err != nil {
		return err
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *redisTx) Keys(prefix string) ([]string, error) {
	bucket, err := bucketOf(prefix)
	if err != nil {
		return nil, err
	}
	idx := t.r.indexKey(bucket)
	if err := t.watch(idx); err != nil {
		return nil, err
	}
	members, err := t.tx.SMembers(t.ctx, idx).Result()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(members))
	var out []string
	for _, k := range members {
		if strings.HasPrefix(k, prefix) {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	for _, k := range t.order {
		if _, dup := seen[k]; !dup && strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darkodi/shortlinks/internal/model"
)

const (
	redisKeyPrefix = "links:"
	redisIndexKey  = "links:index" // sorted set of codes scored by created_at (µs)
)

// Each link is a hash at links:<code>. The scripts below keep the hash and
// the index in step and give Insert and IncrementAndGet their atomicity.
var (
	insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'code', ARGV[1], 'url', ARGV[2], 'clicks', 0, 'created_at', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[1])
return 1
`)

	incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
redis.call('HINCRBY', KEYS[1], 'clicks', 1)
local stamp = ARGV[1]
local created = redis.call('ZSCORE', KEYS[2], ARGV[3])
if created and tonumber(ARGV[2]) < tonumber(created) then
  stamp = redis.call('HGET', KEYS[1], 'created_at')
end
redis.call('HSET', KEYS[1], 'last_clicked', stamp)
return redis.call('HGET', KEYS[1], 'url')
`)

	deleteScript = redis.NewScript(`
local n = redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return n
`)
)

// RedisStore keeps links in Redis.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore connects using a redis:// URL and pings the server.
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns it afterwards.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func linkKey(code string) string {
	return redisKeyPrefix + code
}

func (r *RedisStore) Insert(ctx context.Context, code, url string) (*model.Link, error) {
	createdAt := r.now()
	inserted, err := insertScript.Run(ctx, r.client,
		[]string{linkKey(code), redisIndexKey},
		code, url, createdAt.Format(time.RFC3339Nano), createdAt.UnixMicro(),
	).Int()
	if err != nil {
		return nil, err
	}
	if inserted == 0 {
		return nil, ErrCodeExists
	}

	return &model.Link{Code: code, URL: url, CreatedAt: createdAt}, nil
}

func (r *RedisStore) Exists(ctx context.Context, code string) (bool, error) {
	n, err := r.client.Exists(ctx, linkKey(code)).Result()
	return n > 0, err
}

func (r *RedisStore) IncrementAndGet(ctx context.Context, code string) (string, error) {
	now := r.now()
	url, err := incrementScript.Run(ctx, r.client,
		[]string{linkKey(code), redisIndexKey},
		now.Format(time.RFC3339Nano), now.UnixMicro(), code,
	).Text()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return url, err
}

func (r *RedisStore) Get(ctx context.Context, code string) (*model.Link, error) {
	fields, err := r.client.HGetAll(ctx, linkKey(code)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return parseLinkHash(code, fields)
}

func (r *RedisStore) List(ctx context.Context) ([]model.Link, error) {
	codes, err := r.client.ZRevRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(codes))
	for i, c := range codes {
		cmds[i] = pipe.HGetAll(ctx, linkKey(c))
	}
	if len(codes) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	links := []model.Link{}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // deleted between the two round-trips
		}
		link, err := parseLinkHash(codes[i], fields)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}

	slices.SortStableFunc(links, func(a, b model.Link) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return links, nil
}

func (r *RedisStore) Delete(ctx context.Context, code string) (bool, error) {
	n, err := deleteScript.Run(ctx, r.client,
		[]string{linkKey(code), redisIndexKey},
		code,
	).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func parseLinkHash(code string, fields map[string]string) (*model.Link, error) {
	link := &model.Link{Code: code, URL: fields["url"]}

	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("link %s: bad clicks: %w", code, err)
	}
	link.Clicks = clicks

	link.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("link %s: bad created_at: %w", code, err)
	}

	if raw, ok := fields["last_clicked"]; ok && raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("link %s: bad last_clicked: %w", code, err)
		}
		link.LastClicked = &t
	}
	return link, nil
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "talentmap:gen:"

// Redis stores generations as plain integer keys so that every API replica
// sees the same counters.
type Redis struct {
	rdb redis.UniversalClient
}

var _ Generations = (*Redis)(nil)

// RedisOptions mirrors config.RedisConfig without importing it.
type RedisOptions struct {
	Addresses   []string
	Password    string
	DB          int
	PoolSize    int
	ClusterMode bool
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if len(opts.Addresses) == 0 {
		return nil, errors.New("redis: no address configured")
	}

	var rdb redis.UniversalClient
	if opts.ClusterMode {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    opts.Addresses,
			Password: opts.Password,
			PoolSize: opts.PoolSize,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     opts.Addresses[0],
			Password: opts.Password,
			DB:       opts.DB,
			PoolSize: opts.PoolSize,
		})
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb redis.UniversalClient) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Bump(ctx context.Context, cols ...Collection) error {
	if len(cols) == 0 {
		return nil
	}
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range cols {
			p.Incr(ctx, keyPrefix+string(c))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to bump generations: %w", err)
	}
	return nil
}

func (r *Redis) Current(ctx context.Context, col Collection) (uint64, error) {
	v, err := r.rdb.Get(ctx, keyPrefix+string(col)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read generation %s: %w", col, err)
	}
	return v, nil
}

func (r *Redis) Snapshot(ctx context.Context) (map[Collection]uint64, error) {
	out := make(map[Collection]uint64, len(AllCollections))

	// MGET would fail with CROSSSLOT in cluster mode, so read key by key.
	cmds, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range AllCollections {
			p.Get(ctx, keyPrefix+string(c))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read generations: %w", err)
	}

	for i, c := range AllCollections {
		s, err := cmds[i].(*redis.StringCmd).Result()
		if errors.Is(err, redis.Nil) {
			out[c] = 0
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read generation %s: %w", c, err)
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("generation %s is not a number: %w", c, err)
		}
		out[c] = n
	}
	return out, nil
}

// Package cache stores generated mesh documents keyed by the normalised
// generation parameters, so repeated requests skip meshing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/eckfel/Implicit-Surface-Visualizer/pkg/params"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Store is a mesh document cache.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, mesh string) error
	Close() error
}

// Key derives the cache key of normalised parameters.
func Key(p params.Generation) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", p.Formula, p.Limits, p.Algorithm)))
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// Nop
// ---------------------------------------------------------------------------

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, error) { return "", ErrMiss }
func (Nop) Set(context.Context, string, string) error    { return nil }
func (Nop) Close() error                                 { return nil }

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

// Redis stores meshes in Redis with a TTL.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Redis store.
type Option func(*Redis)

// WithTTL sets the expiration of entries. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) { r.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis connects to a Redis server.
func NewRedis(address, password string, db int, opts ...Option) *Redis {
	return NewRedisFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...Option) *Redis {
	r := &Redis{client: client, prefix: "isoviz:mesh:"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get returns the mesh stored under key or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, backend.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache: get: %w", err)
	}
	return val, nil
}

// Set stores mesh under key.
func (r *Redis) Set(ctx context.Context, key, mesh string) error {
	if err := r.client.Set(ctx, r.prefix+key, mesh, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

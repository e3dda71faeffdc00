package redis

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/ticktree/ticktree/internal/core/bt"
)

// Blackboard implements bt.Blackboard on Redis so several agents, or several
// processes, can share squad state. Each namespace maps to its own hash and
// values travel as JSON, so numbers read back as float64.
//
// The bt.Blackboard surface is synchronous and total: operational errors
// degrade to absent values instead of surfacing to the caller.
type Blackboard struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	ns     string
	ctx    context.Context
}

var _ bt.Blackboard = (*Blackboard)(nil)

type Option func(*Blackboard)

// WithPrefix sets the key prefix for blackboard hashes.
func WithPrefix(prefix string) Option {
	return func(b *Blackboard) {
		b.prefix = prefix
	}
}

// WithTTL sets the expiration refreshed on every write.
func WithTTL(ttl time.Duration) Option {
	return func(b *Blackboard) {
		b.ttl = ttl
	}
}

// New creates a Redis blackboard with its own client.
func New(address, password string, db int, opts ...Option) *Blackboard {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis blackboard from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Blackboard {
	b := &Blackboard{
		client: client,
		prefix: "ticktree:bb",
		ttl:    0, // no expiration by default
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Blackboard) hashKey() string {
	if b.ns == "" {
		return b.prefix
	}
	return b.prefix + ":" + b.ns
}

func (b *Blackboard) Get(key string) (any, bool) {
	raw, err := b.client.HGet(b.ctx, b.hashKey(), key).Result()
	if err != nil {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	return v, true
}

func (b *Blackboard) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	pipe := b.client.Pipeline()
	pipe.HSet(b.ctx, b.hashKey(), key, data)
	if b.ttl > 0 {
		pipe.Expire(b.ctx, b.hashKey(), b.ttl)
	}
	_, _ = pipe.Exec(b.ctx)
}

func (b *Blackboard) Delete(key string) {
	b.client.HDel(b.ctx, b.hashKey(), key)
}

func (b *Blackboard) Keys() []string {
	keys, err := b.client.HKeys(b.ctx, b.hashKey()).Result()
	if err != nil {
		return nil
	}
	sort.Strings(keys)
	return keys
}

// Namespace returns a view bound to its own hash. Unlike the in-memory
// blackboard, a parent view does not see the keys of its namespaces.
func (b *Blackboard) Namespace(ns string) bt.Blackboard {
	ns = strings.ReplaceAll(ns, ":", "_")
	if b.ns != "" {
		ns = b.ns + ":" + ns
	}
	return &Blackboard{
		client: b.client,
		prefix: b.prefix,
		ttl:    b.ttl,
		ns:     ns,
		ctx:    b.ctx,
	}
}

func (b *Blackboard) Dump() map[string]any {
	raw, err := b.client.HGetAll(b.ctx, b.hashKey()).Result()
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(raw))
	for k, data := range raw {
		var v any
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}

// Clear drops the view's hash, leaving other namespaces alone.
func (b *Blackboard) Clear() {
	b.client.Del(b.ctx, b.hashKey())
}

// Close closes the underlying client. Call it only on the blackboard that
// owns the client, not on namespace views.
func (b *Blackboard) Close() error {
	return b.client.Close()
}

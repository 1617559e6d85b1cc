// Package redis provides a state.Cache shared between runtime processes.
//
// States are stored as CBOR under "<prefix><roomID>". A hit returns an equal
// copy of the stored State, not the identical pointer.
package redis

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentruntime/core"
	"github.com/hupe1980/agentruntime/state"
)

// DefaultPrefix is prepended to every room key.
const DefaultPrefix = "agentruntime:state:"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("redis: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// State values are map[string]any all the way down.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("redis: CBOR decoder initialization failed: " + err.Error())
	}
}

// Cache implements state.Cache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiration for cached states. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a cache connected to address.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(roomID string) string {
	return c.prefix + roomID
}

// Get loads the State for a room.
func (c *Cache) Get(ctx context.Context, roomID string) (*core.State, bool, error) {
	val, err := c.client.Get(ctx, c.key(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get state from redis: %w", err)
	}

	st := core.NewState()
	if err := decMode.Unmarshal(val, st); err != nil {
		return nil, false, fmt.Errorf("failed to decode state: %w", err)
	}

	if st.Values == nil {
		st.Values = map[string]any{}
	}

	if st.Data.Providers == nil {
		st.Data.Providers = map[string]map[string]any{}
	}

	return st, true, nil
}

// Set stores the State for a room.
func (c *Cache) Set(ctx context.Context, roomID string, st *core.State) error {
	data, err := encMode.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := c.client.Set(ctx, c.key(roomID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}

	return nil
}

// Delete removes the State for a room.
func (c *Cache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

var _ state.Cache = (*Cache)(nil)

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix  = "threat-console:"
	defaultRedisChannel = "threat-console:prefs"
)

// RedisOptions configures a RedisMedium.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key. Defaults to "threat-console:".
	Prefix string

	// Channel carries change notifications between instances.
	Channel string
}

// RedisMedium implements Medium and Watcher on a shared Redis server so
// that several console instances see each other's preference writes.
type RedisMedium struct {
	client  *redis.Client
	prefix  string
	channel string
	origin  string
}

// NewRedisMedium connects to Redis and verifies the connection.
func NewRedisMedium(ctx context.Context, opts RedisOptions) (*RedisMedium, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", opts.Addr, err)
	}

	return newRedisMedium(client, opts), nil
}

func newRedisMedium(client *redis.Client, opts RedisOptions) *RedisMedium {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	channel := opts.Channel
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &RedisMedium{
		client:  client,
		prefix:  prefix,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Close closes the Redis client.
func (m *RedisMedium) Close() error {
	return m.client.Close()
}

// Get retrieves the value stored under key.
func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := m.client.Get(ctx, m.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting preference %s: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key and announces the change.
func (m *RedisMedium) Put(ctx context.Context, key string, value []byte) error {
	if err := m.client.Set(ctx, m.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("putting preference %s: %w", key, err)
	}
	m.announce(ctx, key)
	return nil
}

// Delete removes key and announces the change.
func (m *RedisMedium) Delete(ctx context.Context, key string) error {
	if err := m.client.Del(ctx, m.prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting preference %s: %w", key, err)
	}
	m.announce(ctx, key)
	return nil
}

// announce publishes "<origin>|<key>". Delivery is best-effort.
func (m *RedisMedium) announce(ctx context.Context, key string) {
	_ = m.client.Publish(ctx, m.channel, m.origin+"|"+key).Err()
}

// Watch subscribes to change announcements and calls fn for writes made
// by other instances until ctx is done.
func (m *RedisMedium) Watch(ctx context.Context, fn func(key string)) error {
	sub := m.client.Subscribe(ctx, m.channel)
	defer sub.Close()

	// Block until the server confirms the subscription.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribing to %s: %w", m.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			origin, key, found := strings.Cut(msg.Payload, "|")
			if !found || origin == m.origin {
				continue
			}
			fn(key)
		}
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/strata/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store touches.
const DefaultPrefix = "strata:layer:"

// Store implements ports.AssetStore using Redis.
// Documents live under <prefix><identifier>; a sorted set indexes them.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for stored documents.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(identifier string) string {
	return s.prefix + identifier
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) channel() string {
	return s.prefix + "changes"
}

// Write stores data and announces the change to watchers.
func (s *Store) Write(ctx context.Context, identifier string, data []byte) error {
	if identifier == "" {
		return fmt.Errorf("%w: identifier cannot be empty", domain.ErrInvalidIdentifier)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(identifier), data, s.ttl)

	// Score = Now + TTL, so List can prune expired members lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: identifier})
	pipe.Publish(ctx, s.channel(), identifier)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write to redis: %w", err)
	}
	return nil
}

// Read retrieves a document.
func (s *Store) Read(ctx context.Context, identifier string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, identifier)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes a document and announces the change.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(identifier))
	pipe.ZRem(ctx, s.indexKey(), identifier)
	pipe.Publish(ctx, s.channel(), identifier)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List returns the stored identifiers, pruning expired ones from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired layers: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

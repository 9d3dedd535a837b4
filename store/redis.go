package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/etnz/kryptos"
	"github.com/redis/go-redis/v9"
)

// Redis stores reference data as JSON values in Redis, under
// "kryptos:asset:<key>" and "kryptos:collection:<id>".
//
// Assets are stored with their collection snapshot; Asset resolves it to the
// stored collection when there is one.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ kryptos.Store = (*Redis)(nil)

// NewRedis returns a store using client. It fails if Redis is not reachable.
func NewRedis(ctx context.Context, client *redis.Client) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client, prefix: "kryptos:"}, nil
}

// DialRedis connects to the Redis server at addr, e.g. "localhost:6379".
func DialRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	return NewRedis(ctx, redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	}))
}

// Close closes the Redis connection.
func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) assetKey(id string) string      { return r.prefix + assetPrefix + id }
func (r *Redis) collectionKey(id string) string { return r.prefix + collectionPrefix + id }

// PutCollection stores c.
func (r *Redis) PutCollection(ctx context.Context, c kryptos.NftCollection) error {
	return r.set(ctx, r.collectionKey(c.ID), c)
}

// PutAsset stores a under its key, and its collection when the store does not
// know it yet.
func (r *Redis) PutAsset(ctx context.Context, a kryptos.Asset) error {
	if a.Collection != nil {
		data, err := a.Collection.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to marshal collection %q: %w", a.Collection.ID, err)
		}
		if err := r.client.SetNX(ctx, r.collectionKey(a.Collection.ID), data, 0).Err(); err != nil {
			return fmt.Errorf("failed to store collection %q: %w", a.Collection.ID, err)
		}
	}
	return r.set(ctx, r.assetKey(a.Key()), a)
}

func (r *Redis) set(ctx context.Context, key string, v json.Marshaler) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (r *Redis) get(ctx context.Context, key string, into json.Unmarshaler) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return kryptos.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := into.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid value in %s: %w", key, err)
	}
	return nil
}

// Asset returns the asset stored under id, with its collection resolved.
func (r *Redis) Asset(ctx context.Context, id string) (kryptos.Asset, error) {
	var a kryptos.Asset
	if err := r.get(ctx, r.assetKey(id), &a); err != nil {
		return kryptos.Asset{}, err
	}
	if a.Collection == nil {
		return a, nil
	}
	c, err := r.Collection(ctx, a.Collection.ID)
	switch {
	case errors.Is(err, kryptos.ErrNotFound):
	case err != nil:
		return kryptos.Asset{}, err
	default:
		a.Collection = c
	}
	return a, nil
}

// Collection returns the collection stored under id.
func (r *Redis) Collection(ctx context.Context, id string) (*kryptos.NftCollection, error) {
	var c kryptos.NftCollection
	if err := r.get(ctx, r.collectionKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Package store holds the reference data entities refer to by id: assets and
// NFT collections.
//
// Memory keeps them in process, Redis shares them between processes. Both
// implement kryptos.Store.
package store

import (
	"context"

	"github.com/etnz/kryptos"
	"github.com/patrickmn/go-cache"
)

const (
	assetPrefix      = "asset:"
	collectionPrefix = "collection:"
)

// Memory is an in process store. Reference data never expires.
//
// Collections are interned: every asset of a collection put in the store
// points to the same NftCollection.
type Memory struct {
	c *cache.Cache
}

var _ kryptos.Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 0)}
}

// PutCollection stores c, replacing any collection with the same id.
// Assets already stored keep pointing to the previous value.
func (m *Memory) PutCollection(c kryptos.NftCollection) *kryptos.NftCollection {
	p := &c
	m.c.Set(collectionPrefix+c.ID, p, cache.NoExpiration)
	return p
}

// PutAsset stores a under its key. Its collection, if any, is replaced by the
// interned one, stored first if unknown.
func (m *Memory) PutAsset(a kryptos.Asset) kryptos.Asset {
	if a.Collection != nil {
		if c, ok := m.collection(a.Collection.ID); ok {
			a.Collection = c
		} else {
			a.Collection = m.PutCollection(*a.Collection)
		}
	}
	m.c.Set(assetPrefix+a.Key(), a, cache.NoExpiration)
	return a
}

func (m *Memory) collection(id string) (*kryptos.NftCollection, bool) {
	v, ok := m.c.Get(collectionPrefix + id)
	if !ok {
		return nil, false
	}
	return v.(*kryptos.NftCollection), true
}

// Asset returns the asset stored under id.
func (m *Memory) Asset(_ context.Context, id string) (kryptos.Asset, error) {
	v, ok := m.c.Get(assetPrefix + id)
	if !ok {
		return kryptos.Asset{}, kryptos.ErrNotFound
	}
	return v.(kryptos.Asset), nil
}

// Collection returns the interned collection id.
func (m *Memory) Collection(_ context.Context, id string) (*kryptos.NftCollection, error) {
	c, ok := m.collection(id)
	if !ok {
		return nil, kryptos.ErrNotFound
	}
	return c, nil
}

// Len returns the number of assets and collections stored.
func (m *Memory) Len() int { return m.c.ItemCount() }
